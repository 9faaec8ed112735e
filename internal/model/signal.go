package model

// ATRData holds the Average True Range in price units and as a percent
// of the last close.
type ATRData struct {
	ATR        float64 `json:"atr"`
	ATRPercent float64 `json:"atr_percent"`
}

// RiskMetrics holds the ATR-derived stop, targets and position sizing
// for a breakout entry.
type RiskMetrics struct {
	EntryPrice      float64 `json:"entry_price"`
	Stop            float64 `json:"stop"`
	StopDistancePct float64 `json:"stop_distance_pct"`
	PositionSizePct float64 `json:"position_size_pct"`
	RiskReward      float64 `json:"risk_reward"`
	Target1         float64 `json:"target_1"`
	Target2         float64 `json:"target_2"`
	Target3         float64 `json:"target_3"`
}

// Volume classification per VPA.
const (
	VolumeClimax     = "CLIMAX"
	VolumeRising     = "RISING"
	VolumeBackground = "BACKGROUND"
	VolumeSteady     = "STEADY"
	VolumeUnknown    = "UNKNOWN"
)

// Effort-vs-result outcomes.
const (
	EffortBullish = "BULLISH"
	EffortBearish = "BEARISH"
	EffortNeutral = "NEUTRAL"
)

// Volume trend directions.
const (
	TrendIncreasing = "INCREASING"
	TrendDecreasing = "DECREASING"
	TrendSteady     = "STEADY"
)

// VPAAnalysis is the volume price analysis of the latest bar relative to
// the recent window.
type VPAAnalysis struct {
	VolumeType     string  `json:"volume_type"`
	EffortVsResult string  `json:"effort_vs_result"`
	VolumeTrend    string  `json:"volume_trend"`
	StrengthScore  float64 `json:"strength_score"` // 0-10
}

// Pyramiding actions.
const (
	ActionInitial = "INITIAL"
	ActionAdd25   = "ADD_25"
	ActionAdd50   = "ADD_50"
	ActionHold    = "HOLD"
	ActionExit    = "EXIT"
)

// PyramidSignal is the position management decision for one evaluation.
type PyramidSignal struct {
	Action            string  `json:"action"`
	Reasoning         string  `json:"reasoning"`
	CurrentProfitPct  float64 `json:"current_profit_pct"`
	SuggestedAddPrice float64 `json:"suggested_add_price,omitempty"`
}

// OptionsAdvice is a rule-table options strategy suggestion attached to
// a signal. Not a pricing model.
type OptionsAdvice struct {
	Strategy   string  `json:"strategy"`
	Strike     float64 `json:"strike"`
	ExpiryDays int     `json:"expiry_days"`
	Reasoning  string  `json:"reasoning"`
}

// Signal is a fully-populated breakout signal. Immutable once the
// detector has composed it.
type Signal struct {
	Ticker         string        `json:"ticker"`
	Interval       string        `json:"interval"`
	Price          float64       `json:"price"`
	Time           string        `json:"time"`
	Tier           string        `json:"tier"`
	RangePct       float64       `json:"range_pct"`
	VolumeMultiple float64       `json:"volume_multiple"`
	ATR            ATRData       `json:"atr"`
	Risk           RiskMetrics   `json:"risk"`
	VPA            VPAAnalysis   `json:"vpa"`
	Options        OptionsAdvice `json:"options"`
	Pyramid        PyramidSignal `json:"pyramid"`
	Strength       float64       `json:"strength"` // 0-100
}
