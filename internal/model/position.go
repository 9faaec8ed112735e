package model

// Position status values.
const (
	PositionActive = "ACTIVE"
	PositionClosed = "CLOSED"
)

// PyramidAdd records one pyramiding addition to a position.
type PyramidAdd struct {
	Price      float64 `json:"price"`
	PercentAdd float64 `json:"percent"`
	Time       string  `json:"time"`
}

// Position is the per-ticker open-position state used by the pyramiding
// engine. At most one position exists per ticker at a time.
type Position struct {
	Ticker       string       `json:"ticker"`
	EntryPrice   float64      `json:"entry_price"`
	EntryTime    string       `json:"entry_time"`
	Interval     string       `json:"interval"`
	StopLoss     float64      `json:"stop_loss"`
	HighestPrice float64      `json:"highest_price"`
	Adds         []PyramidAdd `json:"adds"`
	Status       string       `json:"status"`
	LastUpdate   string       `json:"last_update,omitempty"`
	ExitPrice    float64      `json:"exit_price,omitempty"`
	ExitReason   string       `json:"exit_reason,omitempty"`
	ExitTime     string       `json:"exit_time,omitempty"`
}

// ProfitPct returns the unrealized profit at the given price as a
// percent of the entry price.
func (p *Position) ProfitPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}
