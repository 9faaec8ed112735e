package notifier

import (
	"fmt"
	"strings"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// FormatSignal renders the full breakout alert: why it triggered, the
// risk plan, the options suggestion and the pyramiding action.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 <b>BREAKOUT ALERT</b> 🚨\n")
	fmt.Fprintf(&b, "Score: <b>%.0f/100</b> | %s\n\n", sig.Strength, scoreRating(sig.Strength))

	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "📊 <b>%s</b> @ $%.2f\n", sig.Ticker, sig.Price)
	fmt.Fprintf(&b, "⏰ %s\n", sig.Time)
	fmt.Fprintf(&b, "📍 Timeframe: %s | Tier: %s\n", sig.Interval, sig.Tier)
	fmt.Fprintf(&b, "%s\n\n", divider)

	fmt.Fprintf(&b, "<b>%s</b>\n\n", breakoutType(sig.RangePct, sig.VolumeMultiple))

	fmt.Fprintf(&b, "1️⃣ <b>Accumulation</b>: tight %.1f%% base over 20 bars\n", sig.RangePct)
	fmt.Fprintf(&b, "2️⃣ <b>Volume</b>: %.1fx average (%s, %s, trend %s)\n",
		sig.VolumeMultiple, sig.VPA.VolumeType, sig.VPA.EffortVsResult, sig.VPA.VolumeTrend)
	fmt.Fprintf(&b, "3️⃣ <b>Trend</b>: price above stacked 20/50/200 EMAs\n")
	fmt.Fprintf(&b, "4️⃣ <b>Price action</b>: bullish close above range high\n\n")

	fmt.Fprintf(&b, "%s\n⚠️ <b>RISK MANAGEMENT</b>\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "Entry: $%.2f | Stop: $%.2f (%.1f%%, %.2f ATR)\n",
		sig.Risk.EntryPrice, sig.Risk.Stop, sig.Risk.StopDistancePct, sig.ATR.ATR)
	fmt.Fprintf(&b, "R:R: <b>%.1f:1</b> | Size: <b>%.1f%%</b> of portfolio\n", sig.Risk.RiskReward, sig.Risk.PositionSizePct)
	fmt.Fprintf(&b, "Targets: $%.2f 🎯 / $%.2f 🎯🎯 / $%.2f 🎯🎯🎯\n\n",
		sig.Risk.Target1, sig.Risk.Target2, sig.Risk.Target3)

	fmt.Fprintf(&b, "%s\n📞 <b>OPTIONS</b>\n%s\n\n", divider, divider)
	fmt.Fprintf(&b, "%s | Strike $%.0f | %d days\n", sig.Options.Strategy, sig.Options.Strike, sig.Options.ExpiryDays)
	if sig.Options.Reasoning != "" {
		fmt.Fprintf(&b, "Why: %s\n", sig.Options.Reasoning)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n%s <b>LIVERMORE PLAN</b>\n%s\n\n", divider, pyramidEmoji(sig.Pyramid.Action), divider)
	fmt.Fprintf(&b, "Action: <b>%s</b>\n%s\n", sig.Pyramid.Action, sig.Pyramid.Reasoning)

	switch sig.Pyramid.Action {
	case model.ActionInitial:
		b.WriteString("\nPlan: 100% now, add 25% at +10%, add 50% at +20%, exit at -2%\n")
	case model.ActionAdd25, model.ActionAdd50:
		fmt.Fprintf(&b, "\nCurrent profit: +%.1f%%. This is a winner, add to it.\n", sig.Pyramid.CurrentProfitPct)
	}

	return b.String()
}

// FormatUsageStats renders the per-provider API quota summary.
func FormatUsageStats(stats []quota.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📡 <b>API Usage</b>\n\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "• %s: %d/%d used, %d left\n", s.Provider, s.Used, s.Limit, s.Remaining)
	}
	return b.String()
}

// FormatPositions renders the open position list for the /positions
// command.
func FormatPositions(positions []*model.Position) string {
	if len(positions) == 0 {
		return "📭 No open positions"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "💼 <b>Open Positions</b>\n\n")
	for _, pos := range positions {
		fmt.Fprintf(&b, "• <b>%s</b> entry $%.2f, high $%.2f, stop $%.2f, adds %d\n",
			pos.Ticker, pos.EntryPrice, pos.HighestPrice, pos.StopLoss, len(pos.Adds))
	}
	return b.String()
}

func breakoutType(rangePct, volMultiple float64) string {
	switch {
	case rangePct <= 1.5 && volMultiple >= 3.0:
		return "EXPLOSIVE BREAKOUT FROM TIGHT BASE"
	case rangePct <= 2.0 && volMultiple >= 2.5:
		return "STRONG BREAKOUT WITH VOLUME"
	case rangePct <= 3.0 && volMultiple >= 2.0:
		return "CLEAN BREAKOUT SETUP"
	default:
		return "BREAKOUT PATTERN"
	}
}

func scoreRating(score float64) string {
	switch {
	case score >= 85:
		return "EXCEPTIONAL 🔥🔥🔥"
	case score >= 75:
		return "STRONG 🔥🔥"
	case score >= 65:
		return "GOOD 🔥"
	default:
		return "MARGINAL"
	}
}

func pyramidEmoji(action string) string {
	switch action {
	case model.ActionInitial:
		return "🆕"
	case model.ActionAdd25:
		return "📈"
	case model.ActionAdd50:
		return "🚀"
	case model.ActionHold:
		return "💎"
	case model.ActionExit:
		return "🚪"
	default:
		return ""
	}
}
