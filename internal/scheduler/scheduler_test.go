package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/cache"
	"BreakoutSentinel/internal/detector"
	"BreakoutSentinel/internal/fetch"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/provider"
	"BreakoutSentinel/internal/quota"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/store"
)

func newTestScheduler(t *testing.T, tiers []scanner.Tier) *Scheduler {
	t.Helper()
	kv := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	client := provider.NewClient(provider.ClientOptions{})
	adapters := []provider.Adapter{
		provider.NewFMPAdapter("key", client, quota.NewTracker(kv, "fmp", 250, 10)),
		provider.NewYahooAdapter(client, quota.NewTracker(kv, "yahoo", 1_000_000, 1_000)),
	}
	fetcher := fetch.New(cache.New(kv), fetch.DefaultTTLs, adapters...)
	positions := position.NewStore(kv)
	det := detector.New(detector.DefaultConfig(), position.NewEngine(positions))
	sc := scanner.New(fetcher, det, 2)
	return NewScheduler(context.Background(), sc, fetcher, positions, nil, recorder.NewNoopRecorder(), tiers)
}

func TestRegisterAllAcceptsValidTiers(t *testing.T) {
	s := newTestScheduler(t, []scanner.Tier{
		{Name: "realtime", Interval: "5min", Cron: "0 */5 * * * *", Symbols: []string{"AAPL"}},
		{Name: "slow", Interval: "1h", Cron: "0 0 * * * *", Symbols: []string{"SPY"}},
	})
	assert.NoError(t, s.RegisterAll())
	assert.Len(t, s.Cron.Entries(), 3) // two tiers plus the cache sweep
}

func TestRegisterAllRejectsBadCron(t *testing.T) {
	s := newTestScheduler(t, []scanner.Tier{
		{Name: "broken", Interval: "5min", Cron: "not a cron"},
	})
	assert.Error(t, s.RegisterAll())
}

func TestHandleCommandUsage(t *testing.T) {
	s := newTestScheduler(t, nil)
	reply := s.HandleCommand("/usage")
	assert.Contains(t, reply, "fmp: 0/250")
	assert.Contains(t, reply, "yahoo:")
}

func TestHandleCommandPositionsEmpty(t *testing.T) {
	s := newTestScheduler(t, nil)
	assert.Contains(t, s.HandleCommand("/positions"), "No open positions")
}

func TestHandleCommandUnknownTier(t *testing.T) {
	s := newTestScheduler(t, []scanner.Tier{
		{Name: "realtime", Interval: "5min", Cron: "0 */5 * * * *"},
	})
	assert.Contains(t, s.HandleCommand("/scan nope"), "Unknown tier")
}

func TestManualScanSkipsWhileTierRunning(t *testing.T) {
	var requests int64
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&requests, 1) == 1 {
			close(started)
		}
		<-release
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	defer close(release)

	kv := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	fmp := provider.NewFMPAdapter("key", provider.NewClient(provider.ClientOptions{}), quota.NewTracker(kv, "fmp", 250, 10))
	fmp.BaseURL = srv.URL
	fetcher := fetch.New(cache.New(kv), fetch.DefaultTTLs, fmp)
	positions := position.NewStore(kv)
	det := detector.New(detector.DefaultConfig(), position.NewEngine(positions))
	sc := scanner.New(fetcher, det, 2)
	s := NewScheduler(context.Background(), sc, fetcher, positions, nil, recorder.NewNoopRecorder(), []scanner.Tier{
		{Name: "realtime", Interval: "5min", Cron: "0 */5 * * * *", Symbols: []string{"AAPL"}},
	})
	require.NoError(t, s.RegisterAll())

	done := make(chan struct{})
	go func() {
		s.runTierNow("realtime")
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first sweep never reached the provider")
	}

	// The first sweep is parked inside the provider call. A second
	// manual trigger must share its no-overlap guard and back off.
	s.runTierNow("realtime")
	assert.EqualValues(t, 1, atomic.LoadInt64(&requests))

	release <- struct{}{}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first sweep never finished")
	}
}

func TestManualScanUnregisteredTierIsNoop(t *testing.T) {
	s := newTestScheduler(t, nil)
	s.runTierNow("realtime") // nothing registered, must not panic
}

func TestHandleCommandHelp(t *testing.T) {
	s := newTestScheduler(t, nil)
	reply := s.HandleCommand("/bogus")
	require.Contains(t, reply, "/usage")
	require.Contains(t, reply, "/scan")
}
