package rules

import (
	"math"
	"math/rand"
)

// ReferenceFPS is the frame rate per-frame constants are tuned against.
const ReferenceFPS = 60.0

// FrameChance converts a per-reference-frame probability into the chance
// of at least one hit over elapsed seconds.
func FrameChance(perFrame, elapsed float64) float64 {
	if elapsed <= 0 || perFrame <= 0 {
		return 0
	}
	if perFrame >= 1 {
		return 1
	}
	return 1 - math.Pow(1-perFrame, elapsed*ReferenceFPS)
}

// RateChance converts an events-per-second rate into a probability for the
// frame.
func RateChance(perSecond, elapsed float64) float64 {
	if elapsed <= 0 || perSecond <= 0 {
		return 0
	}
	return 1 - math.Exp(-perSecond*elapsed)
}

// Roll draws against p.
func Roll(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}
