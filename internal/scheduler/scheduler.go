package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/fetch"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
)

// Scheduler drives the tiered scan cadence plus housekeeping jobs.
// SkipIfStillRunning guarantees a slow sweep is never overlapped by
// the next tick of the same tier.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Fetcher   *fetch.Fetcher
	Positions *position.Store
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Tiers     []scanner.Tier
	Ctx       context.Context

	tierEntries map[string]cron.EntryID
	logger      zerolog.Logger
}

// NewScheduler creates a scheduler over the scan pipeline. The notifier
// may be nil when alerting is disabled.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, f *fetch.Fetcher, ps *position.Store, tn *notifier.TelegramNotifier, rec recorder.Recorder, tiers []scanner.Tier) *Scheduler {
	logger := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&logger))),
		),
		Scanner:   sc,
		Fetcher:   f,
		Positions: ps,
		Notifier:  tn,
		Recorder:  rec,
		Tiers:     tiers,
		Ctx:       ctx,

		tierEntries: make(map[string]cron.EntryID),
		logger:      logger,
	}
}

// RegisterAll registers one cron entry per tier plus the hourly cache
// sweep.
func (s *Scheduler) RegisterAll() error {
	for _, tier := range s.Tiers {
		tier := tier
		id, err := s.Cron.AddFunc(tier.Cron, func() { s.runTier(tier) })
		if err != nil {
			return fmt.Errorf("register tier %s: %w", tier.Name, err)
		}
		s.tierEntries[tier.Name] = id
		s.logger.Info().Str("tier", tier.Name).Str("cron", tier.Cron).Msg("tier registered")
	}
	if _, err := s.Cron.AddFunc("0 0 * * * *", func() {
		removed := s.Fetcher.ClearExpired()
		s.logger.Info().Int("removed", removed).Msg("cache sweep")
	}); err != nil {
		return fmt.Errorf("register cache sweep: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("tiers", len(s.Tiers)).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully, waiting for running sweeps.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunAllNow sweeps every tier immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunAllNow() {
	for _, tier := range s.Tiers {
		s.runTierNow(tier.Name)
	}
}

// runTierNow triggers a tier through its registered cron entry. The
// wrapped job shares SkipIfStillRunning state with scheduled ticks, so
// a manual trigger never overlaps a sweep already in flight.
func (s *Scheduler) runTierNow(name string) {
	id, ok := s.tierEntries[name]
	if !ok {
		s.logger.Warn().Str("tier", name).Msg("manual trigger for unregistered tier")
		return
	}
	s.Cron.Entry(id).WrappedJob.Run()
}

func (s *Scheduler) runTier(tier scanner.Tier) {
	for _, st := range s.Fetcher.Stats() {
		s.logger.Info().Str("provider", st.Provider).Int("used", st.Used).
			Int("remaining", st.Remaining).Msg("quota before sweep")
	}

	signals := s.Scanner.ScanTier(s.Ctx, tier)
	for _, sig := range signals {
		if err := s.Recorder.RecordSignal(sig); err != nil {
			s.logger.Error().Err(err).Str("ticker", sig.Ticker).Msg("record signal")
		}
		s.trySend(notifier.FormatSignal(sig))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/usage":
		return notifier.FormatUsageStats(s.Fetcher.Stats())
	case "/positions":
		return notifier.FormatPositions(s.Positions.Active())
	case "/scan":
		if len(fields) > 1 {
			for _, tier := range s.Tiers {
				if tier.Name == fields[1] {
					go s.runTierNow(tier.Name)
					return fmt.Sprintf("🔍 Scanning tier %s", tier.Name)
				}
			}
			return fmt.Sprintf("Unknown tier: %s", fields[1])
		}
		go s.RunAllNow()
		return "🔍 Scanning all tiers"
	default:
		return "Commands:\n• /usage\n• /positions\n• /scan [tier]"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
