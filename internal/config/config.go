package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/universe"
)

// ProviderConfig holds one market data provider's key and quota
// ceilings.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	MaxPerDay    int    `yaml:"max_per_day"`
	MaxPerMinute int    `yaml:"max_per_minute"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Providers struct {
		FMP          ProviderConfig `yaml:"fmp"`
		TwelveData   ProviderConfig `yaml:"twelvedata"`
		AlphaVantage ProviderConfig `yaml:"alphavantage"`
	} `yaml:"providers"`
	Storage struct {
		Backend   string `yaml:"backend"` // file, sqlite or redis
		FilePath  string `yaml:"file_path"`
		SQLite    string `yaml:"sqlite_path"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
	} `yaml:"storage"`
	Database struct {
		SignalsPath string `yaml:"signals_path"`
	} `yaml:"database"`
	Scan struct {
		Concurrency int            `yaml:"concurrency"`
		RunOnStart  bool           `yaml:"run_on_start"`
		Tiers       []scanner.Tier `yaml:"tiers"`
	} `yaml:"scan"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file next to the binary is honored first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		cfg.Providers.FMP.APIKey = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		cfg.Providers.TwelveData.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Concurrency = n
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Scan.RunOnStart = v == "true"
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Providers.FMP.MaxPerDay == 0 {
		cfg.Providers.FMP.MaxPerDay = 250
	}
	if cfg.Providers.FMP.MaxPerMinute == 0 {
		cfg.Providers.FMP.MaxPerMinute = 10
	}
	if cfg.Providers.TwelveData.MaxPerDay == 0 {
		cfg.Providers.TwelveData.MaxPerDay = 25
	}
	if cfg.Providers.TwelveData.MaxPerMinute == 0 {
		cfg.Providers.TwelveData.MaxPerMinute = 5
	}
	if cfg.Providers.AlphaVantage.MaxPerDay == 0 {
		cfg.Providers.AlphaVantage.MaxPerDay = 25
	}
	if cfg.Providers.AlphaVantage.MaxPerMinute == 0 {
		cfg.Providers.AlphaVantage.MaxPerMinute = 5
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = "data/state.json"
	}
	if cfg.Storage.SQLite == "" {
		cfg.Storage.SQLite = "data/state.db"
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = "localhost:6379"
	}
	if cfg.Database.SignalsPath == "" {
		cfg.Database.SignalsPath = "data/signals.db"
	}
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = 4
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.Scan.Tiers) == 0 {
		cfg.Scan.Tiers = DefaultTiers()
	}
}

// DefaultTiers is the stock scan cadence: fast sweeps over a narrow
// high-priority universe, slower sweeps over progressively wider ones.
func DefaultTiers() []scanner.Tier {
	return []scanner.Tier{
		{
			Name:       "realtime",
			Interval:   "5min",
			Cron:       "0 */5 * * * *",
			Symbols:    universe.Merge(universe.MegaCapTech[:7], universe.MajorETFs[:2]),
			MaxSymbols: 9,
		},
		{
			Name:       "fast",
			Interval:   "15min",
			Cron:       "0 */15 * * * *",
			Symbols:    universe.Merge(universe.MegaCapTech, universe.MajorETFs),
			MaxSymbols: 15,
		},
		{
			Name:       "medium",
			Interval:   "1h",
			Cron:       "0 0 * * * *",
			Symbols:    universe.Merge(universe.MegaCapTech, universe.MajorETFs, universe.HighMomentum),
			MaxSymbols: 25,
		},
		{
			Name:       "slow",
			Interval:   "1h",
			Cron:       "0 30 */4 * * *",
			Symbols:    universe.Merge(universe.MegaCapTech, universe.MajorETFs, universe.HighMomentum, universe.LargeCapValue),
			MaxSymbols: 40,
		},
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("storage.backend must be file, sqlite or redis, got %q", c.Storage.Backend)
	}
	for _, tier := range c.Scan.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("scan tier without a name")
		}
		if tier.Cron == "" {
			return fmt.Errorf("scan tier %s has no cron expression", tier.Name)
		}
		if tier.Interval == "" {
			return fmt.Errorf("scan tier %s has no interval", tier.Name)
		}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	return nil
}
