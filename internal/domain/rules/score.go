package rules

import "math"

// Scanner distance buckets.
const (
	BucketClose  = "CLOSE"
	BucketNearby = "NEARBY"
	BucketFar    = "FAR"
)

// DistanceBucket turns a scanner reading into the coarse label shown on the
// scanner's display.
func DistanceBucket(d float64) string {
	switch {
	case d < 100:
		return BucketClose
	case d < 200:
		return BucketNearby
	default:
		return BucketFar
	}
}

// ScoreParams feeds the end-of-shift score.
type ScoreParams struct {
	Sanity              float64
	Integrity           float64
	CompletedDirectives int
	HoursSurvived       float64
}

// CalculateScore rewards what the player kept intact and what they finished.
func CalculateScore(p ScoreParams) int {
	score := math.Floor(p.Sanity)*10 +
		math.Floor(p.Integrity)*10 +
		float64(p.CompletedDirectives)*250 +
		math.Floor(p.HoursSurvived*100)
	if score < 0 {
		return 0
	}
	return int(score)
}
