package provider

import (
	"context"
	"errors"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/quota"
)

// ErrQuotaExhausted signals that the adapter refused to call its
// provider because the daily or per-minute ceiling is reached. The
// fallback fetcher routes to the next tier; it is not a fault.
var ErrQuotaExhausted = errors.New("provider quota exhausted")

// Adapter fetches raw candles from one external provider and
// normalizes them into the canonical ascending-time candle series.
// Adapters map every provider error, malformed payload or transport
// failure to a plain error; nothing panics past this boundary.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, symbol, interval string, outputSize int) (model.CandleSeries, error)
	Tracker() *quota.Tracker
}

// mapInterval resolves a scanner interval to the provider's native
// name. The mapping is total: unrecognized input falls back to def.
func mapInterval(m map[string]string, interval, def string) string {
	if v, ok := m[interval]; ok {
		return v
	}
	return def
}
