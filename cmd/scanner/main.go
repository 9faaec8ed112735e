package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/cache"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/detector"
	"BreakoutSentinel/internal/fetch"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/provider"
	"BreakoutSentinel/internal/quota"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/scheduler"
	"BreakoutSentinel/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().Str("backend", cfg.Storage.Backend).Msg("BreakoutSentinel starting")

	kv, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open state store")
	}
	defer kv.Close()

	client := provider.NewClient(provider.ClientOptions{
		Timeout:        10 * time.Second,
		RequestsPerSec: 5,
		MaxRetries:     2,
		Proxy:          cfg.Proxy,
	})

	adapters := []provider.Adapter{
		provider.NewFMPAdapter(cfg.Providers.FMP.APIKey, client,
			quota.NewTracker(kv, "fmp", cfg.Providers.FMP.MaxPerDay, cfg.Providers.FMP.MaxPerMinute)),
		provider.NewTwelveDataAdapter(cfg.Providers.TwelveData.APIKey, client,
			quota.NewTracker(kv, "twelvedata", cfg.Providers.TwelveData.MaxPerDay, cfg.Providers.TwelveData.MaxPerMinute)),
		provider.NewAlphaVantageAdapter(cfg.Providers.AlphaVantage.APIKey, client,
			quota.NewTracker(kv, "alphavantage", cfg.Providers.AlphaVantage.MaxPerDay, cfg.Providers.AlphaVantage.MaxPerMinute)),
		provider.NewYahooAdapter(client,
			quota.NewTracker(kv, "yahoo", 1_000_000, 1_000)),
	}

	fetcher := fetch.New(cache.New(kv), fetch.DefaultTTLs, adapters...)
	positions := position.NewStore(kv)
	det := detector.New(detector.DefaultConfig(), position.NewEngine(positions))
	sc := scanner.New(fetcher, det, cfg.Scan.Concurrency)

	var rec recorder.Recorder
	if cfg.Database.SignalsPath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SignalsPath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Warn().Msg("telegram not configured, alerts disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, sc, fetcher, positions, tn, rec, cfg.Scan.Tiers)
	if err := sched.RegisterAll(); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
	}

	if cfg.Scan.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, sweeping all tiers now")
		go sched.RunAllNow()
	}

	log.Info().Msg("BreakoutSentinel is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Storage.SQLite)
	case "redis":
		return store.NewRedisStore(cfg.Storage.RedisAddr, os.Getenv("REDIS_PASSWORD"), cfg.Storage.RedisDB, "breakout:")
	default:
		return store.NewFileStore(cfg.Storage.FilePath), nil
	}
}
