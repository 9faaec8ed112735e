package risk

import "BreakoutSentinel/internal/model"

// DefaultATRMultiplier places the stop two ATRs below entry.
const DefaultATRMultiplier = 2.0

// maxPositionPct caps position size regardless of stop tightness.
const maxPositionPct = 25.0

// Metrics derives stop, targets, position size and risk/reward from
// the entry price and ATR. Position size is chosen so a stop-out loses
// exactly 1% of the portfolio, capped at 25%.
func Metrics(price float64, atr model.ATRData, atrMultiplier float64) model.RiskMetrics {
	if atrMultiplier <= 0 {
		atrMultiplier = DefaultATRMultiplier
	}

	stop := price - atr.ATR*atrMultiplier

	var stopDistancePct float64
	if price > 0 {
		stopDistancePct = (price - stop) / price * 100
	}

	positionSizePct := maxPositionPct
	if stopDistancePct > 0 {
		if sized := 100.0 / stopDistancePct; sized < maxPositionPct {
			positionSizePct = sized
		}
	}

	target1 := price + atr.ATR*2
	target2 := price + atr.ATR*3
	target3 := price + atr.ATR*5

	var riskReward float64
	if risk := price - stop; risk > 0 {
		riskReward = (target1 - price) / risk
	}

	return model.RiskMetrics{
		EntryPrice:      price,
		Stop:            stop,
		StopDistancePct: stopDistancePct,
		PositionSizePct: positionSizePct,
		RiskReward:      riskReward,
		Target1:         target1,
		Target2:         target2,
		Target3:         target3,
	}
}
