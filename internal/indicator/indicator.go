package indicator

import (
	"math"

	"BreakoutSentinel/internal/model"
)

// EMA computes the exponential moving average over the last length
// values, seeded with the simple value length bars back from the end.
// A series shorter than length returns the latest value unchanged.
func EMA(series []float64, length int) float64 {
	if len(series) == 0 {
		return 0
	}
	if len(series) < length || length <= 0 {
		return series[len(series)-1]
	}
	k := 2.0 / (float64(length) + 1)
	ema := series[len(series)-length]
	for _, v := range series[len(series)-length+1:] {
		ema = v*k + ema*(1-k)
	}
	return ema
}

// ATR computes the Average True Range over the given period as a
// simple average of per-bar true ranges. With fewer than period+1
// candles it degrades to the average high-low range of the available
// tail; that is a defined approximation, not a failure.
func ATR(candles model.CandleSeries, period int) model.ATRData {
	if len(candles) == 0 || period <= 0 {
		return model.ATRData{}
	}

	lastClose := candles.Last().Close

	if len(candles) < period+1 {
		start := len(candles) - period
		if start < 0 {
			start = 0
		}
		tail := candles[start:]
		sum := 0.0
		for _, c := range tail {
			sum += c.High - c.Low
		}
		avg := sum / float64(len(tail))
		return atrData(avg, lastClose)
	}

	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	sum := 0.0
	for _, tr := range trueRanges[len(trueRanges)-period:] {
		sum += tr
	}
	return atrData(sum/float64(period), lastClose)
}

func atrData(atr, lastClose float64) model.ATRData {
	d := model.ATRData{ATR: atr}
	if lastClose > 0 {
		d.ATRPercent = atr / lastClose * 100
	}
	return d
}
