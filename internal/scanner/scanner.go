package scanner

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"BreakoutSentinel/internal/detector"
	"BreakoutSentinel/internal/fetch"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/universe"
)

// Tier describes one scan cadence: which symbols to check, on which
// candle interval, and how many of them a single sweep may touch.
type Tier struct {
	Name       string   `yaml:"name"`
	Interval   string   `yaml:"interval"`
	Cron       string   `yaml:"cron"`
	Symbols    []string `yaml:"symbols"`
	MaxSymbols int      `yaml:"max_symbols"`
}

// quotaReserve is how many paid API calls one scanned symbol is
// budgeted to cost across providers and retries.
const quotaReserve = 3

const defaultConcurrency = 4

// Scanner sweeps a tier's symbol universe through the fetch pipeline
// and the breakout detector.
type Scanner struct {
	fetcher     *fetch.Fetcher
	detector    *detector.Detector
	concurrency int
	logger      zerolog.Logger
}

func New(fetcher *fetch.Fetcher, det *detector.Detector, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Scanner{
		fetcher:     fetcher,
		detector:    det,
		concurrency: concurrency,
		logger:      log.With().Str("component", "scanner").Logger(),
	}
}

// ScanTier scans as many of the tier's symbols as the remaining paid
// quota affords, highest priority first, and returns the breakout
// signals found. Individual symbol failures never abort the sweep.
func (s *Scanner) ScanTier(ctx context.Context, tier Tier) []*model.Signal {
	budget := s.fetcher.RemainingPaidCalls() / quotaReserve
	if budget == 0 {
		s.logger.Warn().Str("tier", tier.Name).Msg("paid quota exhausted, skipping scan")
		return nil
	}

	max := tier.MaxSymbols
	if max <= 0 || max > budget {
		max = budget
	}
	symbols := universe.Prioritize(tier.Symbols, max)

	s.logger.Info().Str("tier", tier.Name).Str("interval", tier.Interval).
		Int("symbols", len(symbols)).Int("budget", budget).Msg("scan start")

	var (
		mu      sync.Mutex
		signals []*model.Signal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			candles := s.fetcher.FetchCandles(gctx, symbol, tier.Interval, 100)
			if len(candles) == 0 {
				return nil
			}
			sig := s.detector.Detect(symbol, tier.Interval, candles)
			if sig == nil {
				return nil
			}
			sig.Tier = tier.Name
			mu.Lock()
			signals = append(signals, sig)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	s.logger.Info().Str("tier", tier.Name).Int("signals", len(signals)).Msg("scan done")
	return signals
}
