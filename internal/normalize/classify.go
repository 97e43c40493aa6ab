package normalize

import (
	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// Classification thresholds. Scores are nominally in [0,1] but are not
// clamped; out-of-range values bucket to low or high at the extremes.
const (
	highThreshold   = 0.8
	mediumThreshold = 0.5
)

// Classify buckets a confidence score into low, medium or high. It is
// total over any float and is the only place a confidence level is ever
// derived from.
func Classify(score float64) schemas.ConfidenceLevel {
	switch {
	case score >= highThreshold:
		return schemas.ConfidenceHigh
	case score >= mediumThreshold:
		return schemas.ConfidenceMedium
	default:
		return schemas.ConfidenceLow
	}
}
