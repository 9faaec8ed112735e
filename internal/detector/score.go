package detector

import "BreakoutSentinel/internal/model"

// Score combines VPA strength, volume multiple, base tightness and
// risk/reward into a 0-100 signal strength.
func Score(vpa model.VPAAnalysis, riskReward, volumeMultiple, rangePct float64) float64 {
	score := 50.0

	// VPA contributes -10..+10 around its neutral 5.
	score += (vpa.StrengthScore - 5.0) * 2

	switch {
	case volumeMultiple >= 3.0:
		score += 20
	case volumeMultiple >= 2.0:
		score += 15
	case volumeMultiple >= 1.5:
		score += 10
	}

	switch {
	case rangePct <= 1.0:
		score += 15
	case rangePct <= 2.0:
		score += 10
	case rangePct <= 3.0:
		score += 5
	}

	switch {
	case riskReward >= 3.0:
		score += 15
	case riskReward >= 2.0:
		score += 10
	case riskReward >= 1.5:
		score += 5
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
