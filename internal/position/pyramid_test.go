package position

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *Store) {
	t.Helper()
	s := NewStore(store.NewFileStore(filepath.Join(t.TempDir(), "positions.json")))
	return NewEngine(s), s
}

func entry() Entry {
	return Entry{Time: "2026-03-02 10:00:00", Interval: "5min", StopLoss: 96}
}

func TestPyramidLifecycle(t *testing.T) {
	e, s := newTestEngine(t)

	// No position yet: INITIAL at $100.
	sig := e.Evaluate("AAPL", 100, entry())
	require.Equal(t, model.ActionInitial, sig.Action)
	require.True(t, s.HasActive("AAPL"))

	// +9%: hold and let it run.
	sig = e.Evaluate("AAPL", 109, entry())
	assert.Equal(t, model.ActionHold, sig.Action)
	assert.InDelta(t, 9.0, sig.CurrentProfitPct, 1e-9)

	// +11%: first add.
	sig = e.Evaluate("AAPL", 111, entry())
	assert.Equal(t, model.ActionAdd25, sig.Action)
	assert.InDelta(t, 111.0, sig.SuggestedAddPrice, 1e-9)

	// +21% after one add: final add.
	sig = e.Evaluate("AAPL", 121, entry())
	assert.Equal(t, model.ActionAdd50, sig.Action)

	pos, ok := s.Get("AAPL")
	require.True(t, ok)
	require.Len(t, pos.Adds, 2)
	assert.Equal(t, 25.0, pos.Adds[0].PercentAdd)
	assert.Equal(t, 50.0, pos.Adds[1].PercentAdd)
	assert.InDelta(t, 121.0, pos.HighestPrice, 1e-9)

	// -2.1%: exit, position closes.
	sig = e.Evaluate("AAPL", 97.9, entry())
	assert.Equal(t, model.ActionExit, sig.Action)
	assert.False(t, s.HasActive("AAPL"))

	pos, ok = s.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, model.PositionClosed, pos.Status)
	assert.InDelta(t, 97.9, pos.ExitPrice, 1e-9)
}

func TestNoRetroactiveRung(t *testing.T) {
	e, s := newTestEngine(t)
	e.Evaluate("NVDA", 100, entry())

	// First evaluation happens straight at +25%: only the +10% rung
	// advances; the +20% rung needs a later crossing.
	sig := e.Evaluate("NVDA", 125, entry())
	assert.Equal(t, model.ActionAdd25, sig.Action)

	sig = e.Evaluate("NVDA", 126, entry())
	assert.Equal(t, model.ActionAdd50, sig.Action)

	pos, _ := s.Get("NVDA")
	assert.Len(t, pos.Adds, 2)
}

func TestNoThirdAdd(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Evaluate("SPY", 100, entry())
	e.Evaluate("SPY", 111, entry())
	e.Evaluate("SPY", 121, entry())

	// Two rungs recorded; further strength only holds.
	sig := e.Evaluate("SPY", 150, entry())
	assert.Equal(t, model.ActionHold, sig.Action)
}

func TestExitBoundaryIsExclusive(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Evaluate("MSFT", 100, entry())

	// Exactly -2.0% is not yet an exit.
	sig := e.Evaluate("MSFT", 98, entry())
	assert.Equal(t, model.ActionHold, sig.Action)

	sig = e.Evaluate("MSFT", 97.99, entry())
	assert.Equal(t, model.ActionExit, sig.Action)
}

func TestReentryAfterClose(t *testing.T) {
	e, s := newTestEngine(t)
	e.Evaluate("TSLA", 100, entry())
	e.Evaluate("TSLA", 97, entry()) // exit

	sig := e.Evaluate("TSLA", 105, entry())
	assert.Equal(t, model.ActionInitial, sig.Action, "a closed ticker can re-enter")
	pos, _ := s.Get("TSLA")
	assert.InDelta(t, 105.0, pos.EntryPrice, 1e-9)
	assert.Empty(t, pos.Adds)
}

func TestHighestPriceMonotonic(t *testing.T) {
	e, s := newTestEngine(t)
	e.Evaluate("AMD", 100, entry())
	e.Evaluate("AMD", 108, entry())
	e.Evaluate("AMD", 103, entry())

	pos, _ := s.Get("AMD")
	assert.InDelta(t, 108.0, pos.HighestPrice, 1e-9)
}

func TestPositionsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	e := NewEngine(NewStore(store.NewFileStore(path)))
	e.Evaluate("AAPL", 100, entry())
	e.Evaluate("AAPL", 111, entry())

	reopened := NewStore(store.NewFileStore(path))
	pos, ok := reopened.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, model.PositionActive, pos.Status)
	assert.Len(t, pos.Adds, 1)
}

func TestConcurrentEvaluationsSingleEntry(t *testing.T) {
	e, s := newTestEngine(t)

	var wg sync.WaitGroup
	initials := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig := e.Evaluate("GOOG", 100, entry())
			if sig.Action == model.ActionInitial {
				initials <- sig.Action
			}
		}()
	}
	wg.Wait()
	close(initials)

	count := 0
	for range initials {
		count++
	}
	assert.Equal(t, 1, count, "exactly one evaluation may open the position")
	assert.True(t, s.HasActive("GOOG"))
}
