package vpa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"BreakoutSentinel/internal/model"
)

// window builds 20 candles with the given uniform range and volume,
// then overrides the last bar.
func window(barRange, volume float64, last model.Candle) model.CandleSeries {
	candles := make(model.CandleSeries, 20)
	for i := range candles {
		candles[i] = model.Candle{Open: 100, High: 100 + barRange, Low: 100, Close: 100, Volume: volume}
	}
	candles[19] = last
	return candles
}

func TestInsufficientDataDefault(t *testing.T) {
	short := make(model.CandleSeries, 19)
	got := Analyze(short, 2.5)
	assert.Equal(t, model.VPAAnalysis{
		VolumeType:     model.VolumeUnknown,
		EffortVsResult: model.EffortNeutral,
		VolumeTrend:    model.TrendSteady,
		StrengthScore:  5.0,
	}, got)
}

func TestVolumeClassification(t *testing.T) {
	last := model.Candle{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: 1000}
	cases := []struct {
		multiple float64
		want     string
	}{
		{3.5, model.VolumeClimax},
		{3.0, model.VolumeClimax},
		{1.8, model.VolumeRising},
		{1.0, model.VolumeSteady},
		{0.5, model.VolumeBackground},
	}
	for _, tc := range cases {
		got := Analyze(window(1, 1000, last), tc.multiple)
		assert.Equal(t, tc.want, got.VolumeType, "multiple %.1f", tc.multiple)
	}
}

func TestEffortConfirmedByWideRange(t *testing.T) {
	// Preceding bars range 1.0; last bar range 2.0 > 1.5x average.
	last := model.Candle{Open: 100, High: 102, Low: 100, Close: 101.8, Volume: 3000}
	got := Analyze(window(1, 1000, last), 2.5)
	assert.Equal(t, model.EffortBullish, got.EffortVsResult)
	assert.InDelta(t, 8.0, got.StrengthScore, 1e-9)
}

func TestEffortAbsorbedByNarrowRange(t *testing.T) {
	last := model.Candle{Open: 100, High: 100.5, Low: 100, Close: 100.2, Volume: 3000}
	got := Analyze(window(1, 1000, last), 2.5)
	assert.Equal(t, model.EffortBearish, got.EffortVsResult)
	assert.InDelta(t, 3.0, got.StrengthScore, 1e-9)
}

func TestLowVolumeIsAlwaysNeutral(t *testing.T) {
	// Wide range but multiple below 2.0: effort analysis is skipped.
	last := model.Candle{Open: 100, High: 103, Low: 100, Close: 102.5, Volume: 1500}
	got := Analyze(window(1, 1000, last), 1.9)
	assert.Equal(t, model.EffortNeutral, got.EffortVsResult)
	assert.InDelta(t, 5.0, got.StrengthScore, 1e-9)
}

func TestVolumeTrendAdjustsStrength(t *testing.T) {
	candles := make(model.CandleSeries, 20)
	for i := range candles {
		vol := 1000.0
		if i >= 10 {
			vol = 2000.0 // late half ramps up
		}
		candles[i] = model.Candle{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: vol}
	}
	got := Analyze(candles, 1.0)
	assert.Equal(t, model.TrendIncreasing, got.VolumeTrend)
	assert.InDelta(t, 6.0, got.StrengthScore, 1e-9) // neutral 5 + 1

	for i := range candles {
		vol := 2000.0
		if i >= 10 {
			vol = 1000.0
		}
		candles[i].Volume = vol
	}
	got = Analyze(candles, 1.0)
	assert.Equal(t, model.TrendDecreasing, got.VolumeTrend)
	assert.InDelta(t, 4.0, got.StrengthScore, 1e-9)
}

func TestStrengthClampedToTen(t *testing.T) {
	candles := make(model.CandleSeries, 20)
	for i := range candles {
		vol := 1000.0
		if i >= 10 {
			vol = 5000.0
		}
		candles[i] = model.Candle{Open: 100, High: 101, Low: 100, Close: 100.5, Volume: vol}
	}
	// Wide-range climactic last bar: bullish 8 + trend 1 = 9, within bounds.
	candles[19] = model.Candle{Open: 100, High: 103, Low: 100, Close: 102.9, Volume: 9000}
	got := Analyze(candles, 3.5)
	assert.LessOrEqual(t, got.StrengthScore, 10.0)
	assert.GreaterOrEqual(t, got.StrengthScore, 0.0)
	assert.Equal(t, model.VolumeClimax, got.VolumeType)
}
