package model

// Candle represents a single normalized OHLCV bar.
// Datetime keeps the provider-local timestamp string; bars are immutable
// once an adapter has produced them.
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// CandleSeries is an ordered series of candles, oldest first, for one
// (symbol, interval) pair.
type CandleSeries []Candle

// Closes extracts the close prices in order.
func (s CandleSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Last returns the most recent candle. The caller must check len > 0 first.
func (s CandleSeries) Last() Candle {
	return s[len(s)-1]
}
