package vpa

import (
	"BreakoutSentinel/internal/model"
)

// Analyze classifies the latest bar's volume behavior against the last
// 20 candles. volumeMultiple is current volume over the trailing
// average. Fewer than 20 candles yields the insufficient-data default,
// not an error.
func Analyze(candles model.CandleSeries, volumeMultiple float64) model.VPAAnalysis {
	if len(candles) < 20 {
		return model.VPAAnalysis{
			VolumeType:     model.VolumeUnknown,
			EffortVsResult: model.EffortNeutral,
			VolumeTrend:    model.TrendSteady,
			StrengthScore:  5.0,
		}
	}

	recent := candles[len(candles)-20:]
	last := candles.Last()

	var volumeType string
	switch {
	case volumeMultiple >= 3.0:
		volumeType = model.VolumeClimax
	case volumeMultiple >= 1.5:
		volumeType = model.VolumeRising
	case volumeMultiple <= 0.7:
		volumeType = model.VolumeBackground
	default:
		volumeType = model.VolumeSteady
	}

	// Effort vs result: only meaningful on genuinely high volume.
	// Wide range on heavy volume is effort confirmed; narrow range is
	// effort absorbed with no result.
	effort := model.EffortNeutral
	strength := 5.0
	if volumeMultiple >= 2.0 {
		priceRange := last.High - last.Low
		preceding := recent[:len(recent)-1]
		avgRange := 0.0
		for _, c := range preceding {
			avgRange += c.High - c.Low
		}
		avgRange /= float64(len(preceding))

		switch {
		case priceRange > avgRange*1.5:
			effort = model.EffortBullish
			strength = 8.0
		case priceRange < avgRange*0.7:
			effort = model.EffortBearish
			strength = 3.0
		}
	}

	// Volume trend: newest 10 bars against the 10 before them.
	earlyVol := avgVolume(recent[:10])
	lateVol := avgVolume(recent[10:])

	trend := model.TrendSteady
	switch {
	case lateVol > earlyVol*1.3:
		trend = model.TrendIncreasing
		strength += 1.0
	case lateVol < earlyVol*0.7:
		trend = model.TrendDecreasing
		strength -= 1.0
	}

	if strength > 10 {
		strength = 10
	}
	if strength < 0 {
		strength = 0
	}

	return model.VPAAnalysis{
		VolumeType:     volumeType,
		EffortVsResult: effort,
		VolumeTrend:    trend,
		StrengthScore:  strength,
	}
}

func avgVolume(candles model.CandleSeries) float64 {
	if len(candles) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candles {
		sum += c.Volume
	}
	return sum / float64(len(candles))
}
