package risk

import "BreakoutSentinel/internal/model"

// Options strategies.
const (
	StrategyCall            = "CALL"
	StrategyCallSpread      = "CALL_SPREAD"
	StrategySharesThenCalls = "SHARES_THEN_CALLS"
)

// OptionsAdvice picks an options strategy from a fixed rule table over
// the scan interval and current volatility. It is a suggestion, not a
// priced trade.
func OptionsAdvice(price float64, atr model.ATRData, interval string) model.OptionsAdvice {
	var advice model.OptionsAdvice

	switch interval {
	case "1min":
		advice.Strategy = StrategySharesThenCalls
		advice.ExpiryDays = 7
		advice.Reasoning = "Fast 1m breakout - enter with shares, add calls on confirmation"
	case "5min":
		if atr.ATRPercent > 3.0 {
			advice.Strategy = StrategyCallSpread
			advice.ExpiryDays = 14
			advice.Reasoning = "High volatility - use call spread to reduce cost"
		} else {
			advice.Strategy = StrategyCall
			advice.ExpiryDays = 14
			advice.Reasoning = "Clean breakout - ATM calls for leverage"
		}
	default:
		advice.Strategy = StrategyCall
		advice.ExpiryDays = 30
		advice.Reasoning = "Swing setup - use monthly calls for time"
	}

	if advice.Strategy == StrategyCallSpread {
		advice.Strike = price * 1.02 // slightly OTM
	} else {
		advice.Strike = price // ATM
	}
	return advice
}
