package detector

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/indicator"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/risk"
	"BreakoutSentinel/internal/vpa"
)

// Config holds the breakout strategy parameters.
type Config struct {
	LookbackBars  int     // consolidation window, current bar excluded
	VolLength     int     // trailing bars for the volume average
	VolMultiplier float64 // spike threshold vs trailing average
	MaxRangePct   float64 // consolidation ceiling in percent
	MinAvgVolume  float64 // liquidity floor on the trailing average
	ATRPeriod     int
	ATRMultiplier float64
}

// DefaultConfig mirrors the strategy's stock parameters.
func DefaultConfig() Config {
	return Config{
		LookbackBars:  20,
		VolLength:     20,
		VolMultiplier: 2.0,
		MaxRangePct:   3.0,
		MinAvgVolume:  100_000,
		ATRPeriod:     14,
		ATRMultiplier: 2.0,
	}
}

// Detector evaluates the Wyckoff consolidation / volume spike / EMA
// trend breakout conditions and, when they all hold, composes a fully
// scored signal with pyramiding state applied.
type Detector struct {
	cfg     Config
	pyramid *position.Engine
	logger  zerolog.Logger
}

// New builds a detector over the pyramiding engine.
func New(cfg Config, pyramid *position.Engine) *Detector {
	if cfg.LookbackBars <= 0 {
		cfg = DefaultConfig()
	}
	return &Detector{
		cfg:     cfg,
		pyramid: pyramid,
		logger:  log.With().Str("component", "detector").Logger(),
	}
}

// Detect returns the composed signal for the latest bar, or nil when
// any breakout condition fails. Insufficient data is a no-signal, not
// an error.
func (d *Detector) Detect(symbol, interval string, candles model.CandleSeries) *model.Signal {
	n := len(candles)
	min := d.cfg.LookbackBars + 1
	if v := d.cfg.VolLength + 1; v > min {
		min = v
	}
	if min < 50 {
		min = 50
	}
	if n < min {
		return nil
	}

	last := candles.Last()
	if last.Close == 0 {
		return nil
	}

	// Consolidation range over the lookback window preceding the
	// current bar.
	rangeHigh, rangeLow := windowRange(candles[n-1-d.cfg.LookbackBars : n-1])
	rangePct := (rangeHigh - rangeLow) / last.Close * 100
	consolidating := rangePct <= d.cfg.MaxRangePct

	// Volume spike against the trailing average, with an outright
	// liquidity floor on the average itself.
	avgVol := 0.0
	for _, c := range candles[n-d.cfg.VolLength:] {
		avgVol += c.Volume
	}
	avgVol /= float64(d.cfg.VolLength)
	if avgVol < d.cfg.MinAvgVolume {
		return nil
	}
	volSpike := last.Volume >= d.cfg.VolMultiplier*avgVol

	breaksHigh := last.Close > rangeHigh
	bullishBar := last.Close > last.Open

	closes := candles.Closes()
	ema20 := indicator.EMA(closes, 20)
	ema50 := indicator.EMA(closes, 50)
	ema200Len := 200
	if len(closes) < 200 {
		ema200Len = len(closes)
	}
	ema200 := indicator.EMA(closes, ema200Len)
	trendOK := last.Close > ema20 && ema20 > ema50 && ema50 > ema200

	if !(consolidating && volSpike && breaksHigh && bullishBar && trendOK) {
		return nil
	}

	volMultiple := last.Volume / avgVol
	atrData := indicator.ATR(candles, d.cfg.ATRPeriod)
	riskMetrics := risk.Metrics(last.Close, atrData, d.cfg.ATRMultiplier)
	vpaAnalysis := vpa.Analyze(candles, volMultiple)
	options := risk.OptionsAdvice(last.Close, atrData, interval)

	pyramidSig := d.pyramid.Evaluate(symbol, last.Close, position.Entry{
		Time:     last.Datetime,
		Interval: interval,
		StopLoss: riskMetrics.Stop,
	})

	strength := Score(vpaAnalysis, riskMetrics.RiskReward, volMultiple, rangePct)

	d.logger.Info().Str("symbol", symbol).Str("interval", interval).
		Float64("price", last.Close).Float64("strength", strength).
		Str("action", pyramidSig.Action).Msg("breakout detected")

	return &model.Signal{
		Ticker:         symbol,
		Interval:       interval,
		Price:          last.Close,
		Time:           last.Datetime,
		RangePct:       rangePct,
		VolumeMultiple: volMultiple,
		ATR:            atrData,
		Risk:           riskMetrics,
		VPA:            vpaAnalysis,
		Options:        options,
		Pyramid:        pyramidSig,
		Strength:       strength,
	}
}

func windowRange(candles model.CandleSeries) (high, low float64) {
	high = candles[0].High
	low = candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
