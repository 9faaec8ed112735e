package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/cache"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/provider"
	"BreakoutSentinel/internal/quota"
)

// DefaultTTLs maps candle intervals to cache lifetimes. Finer intervals
// get shorter TTLs to balance freshness against provider quota.
var DefaultTTLs = map[string]time.Duration{
	"1min":  2 * time.Minute,
	"5min":  5 * time.Minute,
	"15min": 15 * time.Minute,
	"30min": 20 * time.Minute,
	"1h":    30 * time.Minute,
}

const fallbackTTL = 5 * time.Minute

// Fetcher walks the provider tiers in a fixed priority order with the
// response cache in front. The order is most-constrained-but-best
// first, free-and-unlimited last, so a scan always makes forward
// progress even with every paid tier exhausted.
type Fetcher struct {
	adapters []provider.Adapter
	cache    *cache.ResponseCache
	ttls     map[string]time.Duration
	logger   zerolog.Logger
}

// New creates a fetcher over the given adapters in priority order.
func New(c *cache.ResponseCache, ttls map[string]time.Duration, adapters ...provider.Adapter) *Fetcher {
	if ttls == nil {
		ttls = DefaultTTLs
	}
	return &Fetcher{
		adapters: adapters,
		cache:    c,
		ttls:     ttls,
		logger:   log.With().Str("component", "fetcher").Logger(),
	}
}

// FetchCandles returns the candle series for (symbol, interval), from
// cache when fresh, otherwise from the first tier that delivers. An
// empty series means "skip this symbol this cycle", never an error.
func (f *Fetcher) FetchCandles(ctx context.Context, symbol, interval string, outputSize int) model.CandleSeries {
	if series, ok := f.cache.Get(symbol, interval); ok {
		f.logger.Debug().Str("symbol", symbol).Str("interval", interval).Msg("cache hit")
		return series
	}

	for _, a := range f.adapters {
		series, err := a.Fetch(ctx, symbol, interval, outputSize)
		if err != nil {
			evt := f.logger.Debug()
			if !errors.Is(err, provider.ErrQuotaExhausted) {
				evt = f.logger.Warn()
			}
			evt.Err(err).Str("provider", a.Name()).Str("symbol", symbol).Msg("tier failed, falling back")
			continue
		}
		if len(series) == 0 {
			continue
		}
		f.cache.Put(symbol, interval, series, f.ttl(interval))
		f.logger.Info().Str("provider", a.Name()).Str("symbol", symbol).
			Int("bars", len(series)).Msg("fetched")
		return series
	}

	f.logger.Warn().Str("symbol", symbol).Str("interval", interval).Msg("all provider tiers failed")
	return nil
}

// Stats returns per-provider usage snapshots in tier order.
func (f *Fetcher) Stats() []quota.Stats {
	stats := make([]quota.Stats, 0, len(f.adapters))
	for _, a := range f.adapters {
		stats = append(stats, a.Tracker().UsageStats())
	}
	return stats
}

// RemainingPaidCalls sums the remaining daily calls of every tier
// except the final free one. The scanner budgets its per-cycle symbol
// count from this.
func (f *Fetcher) RemainingPaidCalls() int {
	total := 0
	for i, a := range f.adapters {
		if i == len(f.adapters)-1 {
			break
		}
		total += a.Tracker().Remaining()
	}
	return total
}

// ClearExpired sweeps the response cache.
func (f *Fetcher) ClearExpired() int {
	return f.cache.ClearExpired()
}

func (f *Fetcher) ttl(interval string) time.Duration {
	if ttl, ok := f.ttls[interval]; ok {
		return ttl
	}
	return fallbackTTL
}
