package cache

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/store"
)

// entry is one cached candle series with its freshness metadata.
type entry struct {
	Symbol     string             `json:"symbol"`
	Interval   string             `json:"interval"`
	Data       model.CandleSeries `json:"data"`
	Timestamp  int64              `json:"timestamp"` // epoch seconds
	TTLSeconds int                `json:"ttl_seconds"`
}

func (e *entry) expired(now time.Time) bool {
	return now.Unix()-e.Timestamp > int64(e.TTLSeconds)
}

// ResponseCache stores normalized candle series keyed by
// "{symbol}_{interval}" with a caller-chosen TTL. An expired entry is a
// miss and is evicted on access.
type ResponseCache struct {
	store  store.Store
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a cache on top of the shared key-value store.
func New(s store.Store) *ResponseCache {
	return &ResponseCache{
		store:  s,
		now:    time.Now,
		logger: log.With().Str("component", "cache").Logger(),
	}
}

func cacheKey(symbol, interval string) string {
	return "cache:" + symbol + "_" + interval
}

// Get returns the cached series for (symbol, interval), or ok=false on
// a miss. Corrupt entries count as misses.
func (c *ResponseCache) Get(symbol, interval string) (model.CandleSeries, bool) {
	key := cacheKey(symbol, interval)
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry, evicting")
		c.evict(key)
		return nil, false
	}
	if e.expired(c.now()) {
		c.evict(key)
		return nil, false
	}
	return e.Data, true
}

// Put replaces the entry for (symbol, interval). Entries are only ever
// replaced whole, never partially updated.
func (c *ResponseCache) Put(symbol, interval string, series model.CandleSeries, ttl time.Duration) {
	e := entry{
		Symbol:     symbol,
		Interval:   interval,
		Data:       series,
		Timestamp:  c.now().Unix(),
		TTLSeconds: int(ttl.Seconds()),
	}
	raw, err := json.Marshal(&e)
	if err == nil {
		err = c.store.Put(cacheKey(symbol, interval), raw)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("cache write")
	}
}

// ClearExpired sweeps all cache entries and evicts the expired ones.
// Returns the number of entries removed.
func (c *ResponseCache) ClearExpired() int {
	keys, err := c.store.Keys()
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache sweep")
		return 0
	}
	removed := 0
	now := c.now()
	for _, key := range keys {
		if len(key) < 6 || key[:6] != "cache:" {
			continue
		}
		raw, ok, err := c.store.Get(key)
		if err != nil || !ok {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil || e.expired(now) {
			c.evict(key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info().Int("removed", removed).Msg("cleared expired cache entries")
	}
	return removed
}

func (c *ResponseCache) evict(key string) {
	if err := c.store.Delete(key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache evict")
	}
}
