package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"BreakoutSentinel/internal/model"
)

func TestEMAConstantSeries(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 42.5
	}
	assert.InDelta(t, 42.5, EMA(series, 20), 1e-9)
	assert.InDelta(t, 42.5, EMA(series, 50), 1e-9)
}

func TestEMAShortSeriesReturnsLast(t *testing.T) {
	series := []float64{10, 11, 12}
	assert.Equal(t, 12.0, EMA(series, 20))
}

func TestEMATracksRisingSeries(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(i)
	}
	ema20 := EMA(series, 20)
	ema50 := EMA(series, 50)
	assert.Greater(t, ema20, ema50, "shorter EMA sits closer to recent prices in an uptrend")
	assert.Less(t, ema20, series[len(series)-1])
}

func flatCandles(n int, rng float64) model.CandleSeries {
	candles := make(model.CandleSeries, n)
	for i := range candles {
		candles[i] = model.Candle{Open: 100, High: 100 + rng/2, Low: 100 - rng/2, Close: 100, Volume: 1000}
	}
	return candles
}

func TestATRFlatSeries(t *testing.T) {
	d := ATR(flatCandles(30, 2), 14)
	assert.InDelta(t, 2.0, d.ATR, 1e-9)
	assert.InDelta(t, 2.0, d.ATRPercent, 1e-9) // 2/100*100
}

func TestATRNonNegativeAndPercentExact(t *testing.T) {
	candles := model.CandleSeries{
		{High: 105, Low: 95, Close: 100},
		{High: 110, Low: 100, Close: 108},
		{High: 112, Low: 104, Close: 106},
		{High: 109, Low: 101, Close: 102},
	}
	d := ATR(candles, 3)
	assert.GreaterOrEqual(t, d.ATR, 0.0)
	assert.InDelta(t, d.ATR/102*100, d.ATRPercent, 1e-9)
}

func TestATRGapUsesTrueRange(t *testing.T) {
	// A gap up makes |high-prevClose| the dominant term.
	candles := model.CandleSeries{
		{High: 101, Low: 99, Close: 100},
		{High: 111, Low: 109, Close: 110},
	}
	// Too short for period+1=3: degraded mode averages high-low.
	degraded := ATR(candles, 2)
	assert.InDelta(t, 2.0, degraded.ATR, 1e-9)

	candles = append(model.CandleSeries{{High: 101, Low: 99, Close: 100}}, candles...)
	full := ATR(candles, 2)
	assert.Greater(t, full.ATR, 2.0, "true range must see the gap")
}

func TestATRShortSeriesDegradedMode(t *testing.T) {
	d := ATR(flatCandles(5, 4), 14)
	assert.InDelta(t, 4.0, d.ATR, 1e-9)
}
