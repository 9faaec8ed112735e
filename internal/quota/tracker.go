package quota

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/store"
)

// usageRecord is the durable per-provider call counter. The per-minute
// window is deliberately in-memory only: it is meaningless across
// restarts.
type usageRecord struct {
	Date      string `json:"date"` // YYYY-MM-DD, local calendar day
	Calls     int    `json:"calls"`
	LastReset string `json:"last_reset"`
}

// Tracker enforces a provider's daily and per-minute call ceilings.
// Crossing a calendar day resets the daily counter before any check.
// TryAcquire checks both ceilings and reserves the call under one
// lock, so concurrent callers can never overshoot a ceiling.
type Tracker struct {
	mu           sync.Mutex
	provider     string
	maxPerDay    int
	maxPerMinute int
	store        store.Store
	usage        usageRecord
	minuteCalls  []time.Time
	now          func() time.Time
	logger       zerolog.Logger
}

// NewTracker loads the persisted usage record for the provider. A
// missing or corrupt record reinitializes to zero for the current day.
func NewTracker(s store.Store, provider string, maxPerDay, maxPerMinute int) *Tracker {
	t := &Tracker{
		provider:     provider,
		maxPerDay:    maxPerDay,
		maxPerMinute: maxPerMinute,
		store:        s,
		now:          time.Now,
		logger:       log.With().Str("component", "quota").Str("provider", provider).Logger(),
	}
	raw, ok, err := s.Get(t.key())
	if err != nil {
		t.logger.Warn().Err(err).Msg("load usage record, starting fresh")
	}
	if !ok || err != nil || json.Unmarshal(raw, &t.usage) != nil || t.usage.Date == "" {
		t.usage = t.freshRecord()
	}
	return t
}

// CanCall reports whether a call right now would stay within both
// ceilings.
func (t *Tracker) CanCall() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	if t.usage.Calls >= t.maxPerDay {
		return false
	}
	return t.minuteWindow() < t.maxPerMinute
}

// RecordCall counts one completed provider call against both windows.
func (t *Tracker) RecordCall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	t.usage.Calls++
	t.minuteCalls = append(t.minuteCalls, t.now())
	t.persist()
}

// TryAcquire reserves one call if both ceilings allow it. The check
// and the increment happen under one lock, so two callers racing for
// the last slot cannot both win. A caller whose request never reached
// the provider must hand the reservation back with Release.
func (t *Tracker) TryAcquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	if t.usage.Calls >= t.maxPerDay {
		return false
	}
	if t.minuteWindow() >= t.maxPerMinute {
		return false
	}
	t.usage.Calls++
	t.minuteCalls = append(t.minuteCalls, t.now())
	t.persist()
	return true
}

// Release returns a reservation taken by TryAcquire. Only for calls
// that got no response at all; a provider-error response still counted
// against the upstream quota and must not be released.
func (t *Tracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	if t.usage.Calls > 0 {
		t.usage.Calls--
	}
	if n := len(t.minuteCalls); n > 0 {
		t.minuteCalls = t.minuteCalls[:n-1]
	}
	t.persist()
}

// Remaining returns the calls left today.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	if rem := t.maxPerDay - t.usage.Calls; rem > 0 {
		return rem
	}
	return 0
}

// Stats describes today's usage for reporting.
type Stats struct {
	Provider  string `json:"provider"`
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

// UsageStats returns a snapshot of today's usage.
func (t *Tracker) UsageStats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNewDay()

	rem := t.maxPerDay - t.usage.Calls
	if rem < 0 {
		rem = 0
	}
	return Stats{
		Provider:  t.provider,
		Date:      t.usage.Date,
		Used:      t.usage.Calls,
		Remaining: rem,
		Limit:     t.maxPerDay,
	}
}

func (t *Tracker) key() string { return "usage:" + t.provider }

func (t *Tracker) freshRecord() usageRecord {
	now := t.now()
	return usageRecord{
		Date:      now.Format("2006-01-02"),
		LastReset: now.Format(time.RFC3339),
	}
}

// resetIfNewDay zeroes the daily counter on a date rollover. Caller
// holds the lock.
func (t *Tracker) resetIfNewDay() {
	today := t.now().Format("2006-01-02")
	if t.usage.Date != today {
		t.usage = t.freshRecord()
		t.persist()
		t.logger.Info().Str("date", today).Msg("daily quota counter reset")
	}
}

// minuteWindow prunes timestamps older than 60s and returns the count
// remaining. Caller holds the lock.
func (t *Tracker) minuteWindow() int {
	cutoff := t.now().Add(-60 * time.Second)
	kept := t.minuteCalls[:0]
	for _, ts := range t.minuteCalls {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.minuteCalls = kept
	return len(t.minuteCalls)
}

func (t *Tracker) persist() {
	raw, err := json.Marshal(t.usage)
	if err == nil {
		err = t.store.Put(t.key(), raw)
	}
	if err != nil {
		t.logger.Warn().Err(err).Msg("persist usage record")
	}
}
