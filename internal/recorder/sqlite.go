package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"BreakoutSentinel/internal/model"
)

// SQLiteRecorder persists signal history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc analysis reads do not block scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: log.With().Str("component", "recorder").Logger(),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			ticker           TEXT NOT NULL,
			tier             TEXT,
			interval         TEXT,
			bar_time         TEXT,
			price            REAL,
			range_pct        REAL,
			volume_multiple  REAL,
			atr              REAL,
			atr_pct          REAL,
			stop             REAL,
			position_size    REAL,
			risk_reward      REAL,
			target1          REAL,
			target2          REAL,
			target3          REAL,
			vpa_condition    TEXT,
			vpa_effort       TEXT,
			vpa_trend        TEXT,
			vpa_strength     REAL,
			pyramid_action   TEXT,
			pyramid_profit   REAL,
			options_strategy TEXT,
			options_strike   REAL,
			options_expiry   INTEGER,
			strength         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker ON signals(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, ticker, tier, interval, bar_time, price,
		 range_pct, volume_multiple, atr, atr_pct,
		 stop, position_size, risk_reward, target1, target2, target3,
		 vpa_condition, vpa_effort, vpa_trend, vpa_strength,
		 pyramid_action, pyramid_profit,
		 options_strategy, options_strike, options_expiry,
		 strength)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), sig.Ticker, sig.Tier, sig.Interval, sig.Time, sig.Price,
		sig.RangePct, sig.VolumeMultiple, sig.ATR.ATR, sig.ATR.ATRPercent,
		sig.Risk.Stop, sig.Risk.PositionSizePct, sig.Risk.RiskReward,
		sig.Risk.Target1, sig.Risk.Target2, sig.Risk.Target3,
		sig.VPA.VolumeType, sig.VPA.EffortVsResult, sig.VPA.VolumeTrend, sig.VPA.StrengthScore,
		sig.Pyramid.Action, sig.Pyramid.CurrentProfitPct,
		sig.Options.Strategy, sig.Options.Strike, sig.Options.ExpiryDays,
		sig.Strength,
	)
	return err
}

// Recent returns the most recent signals, newest first. Used by the
// command interface.
func (r *SQLiteRecorder) Recent(limit int) ([]*model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT ticker, tier, interval, bar_time, price, strength
		FROM signals ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Signal
	for rows.Next() {
		var sig model.Signal
		if err := rows.Scan(&sig.Ticker, &sig.Tier, &sig.Interval, &sig.Time, &sig.Price, &sig.Strength); err != nil {
			return nil, err
		}
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
