package position

import (
	"fmt"

	"BreakoutSentinel/internal/model"
)

// Pyramiding thresholds, Livermore-style: cut a loser at -2%, add a
// quarter at +10%, the final half at +20%.
const (
	exitThresholdPct  = -2.0
	firstAddPct       = 10.0
	secondAddPct      = 20.0
	runningProfitPct  = 5.0
	firstAddFraction  = 25.0
	secondAddFraction = 50.0
)

// Entry carries the context needed to open a position on an INITIAL
// decision.
type Entry struct {
	Time     string
	Interval string
	StopLoss float64
}

// Engine is the per-ticker position state machine. Evaluate both
// decides and applies: the decision and its position mutation happen
// under one lock so concurrent evaluations of the same ticker never
// interleave.
type Engine struct {
	store *Store
}

// NewEngine creates a pyramiding engine over the position store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Evaluate runs one state-machine step for the ticker at the current
// price. With no active position it opens one and returns INITIAL.
// Otherwise it updates the highest seen price, advances at most one
// pyramid rung per crossing, and closes the position on EXIT.
func (e *Engine) Evaluate(ticker string, price float64, entry Entry) model.PyramidSignal {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	pos, ok := e.store.get(ticker)
	if !ok || pos.Status != model.PositionActive {
		e.store.put(&model.Position{
			Ticker:       ticker,
			EntryPrice:   price,
			EntryTime:    entry.Time,
			Interval:     entry.Interval,
			StopLoss:     entry.StopLoss,
			HighestPrice: price,
			Adds:         []model.PyramidAdd{},
			Status:       model.PositionActive,
		})
		return model.PyramidSignal{
			Action:           model.ActionInitial,
			Reasoning:        "New breakout - initial entry opportunity",
			CurrentProfitPct: 0,
		}
	}

	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}
	pos.LastUpdate = entry.Time
	profit := pos.ProfitPct(price)

	var sig model.PyramidSignal
	switch {
	case profit < exitThresholdPct:
		pos.Status = model.PositionClosed
		pos.ExitPrice = price
		pos.ExitReason = "stop: position against us"
		pos.ExitTime = entry.Time
		sig = model.PyramidSignal{
			Action:           model.ActionExit,
			Reasoning:        "Position against us - cut loss per Livermore",
			CurrentProfitPct: profit,
		}
	case profit >= firstAddPct && len(pos.Adds) == 0:
		pos.Adds = append(pos.Adds, model.PyramidAdd{Price: price, PercentAdd: firstAddFraction, Time: entry.Time})
		sig = model.PyramidSignal{
			Action:            model.ActionAdd25,
			Reasoning:         "Strong move +10% - add 25% to winner (Livermore)",
			CurrentProfitPct:  profit,
			SuggestedAddPrice: price,
		}
	case profit >= secondAddPct && len(pos.Adds) == 1:
		pos.Adds = append(pos.Adds, model.PyramidAdd{Price: price, PercentAdd: secondAddFraction, Time: entry.Time})
		sig = model.PyramidSignal{
			Action:            model.ActionAdd50,
			Reasoning:         "Exceptional move +20% - final add 50% (Livermore)",
			CurrentProfitPct:  profit,
			SuggestedAddPrice: price,
		}
	case profit >= runningProfitPct:
		sig = model.PyramidSignal{
			Action:           model.ActionHold,
			Reasoning:        fmt.Sprintf("In profit +%.1f%% - let it run", profit),
			CurrentProfitPct: profit,
		}
	default:
		sig = model.PyramidSignal{
			Action:           model.ActionHold,
			Reasoning:        "Early in trade - monitor",
			CurrentProfitPct: profit,
		}
	}

	e.store.put(pos)
	return sig
}
