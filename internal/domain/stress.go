package domain

import "fmt"

// Stress category labels, from least to most severe.
const (
	StressLow      = "Low"
	StressModerate = "Moderate"
	StressHigh     = "High"
	StressCritical = "Critical"
)

// ClipScore forces a raw estimator output into the [0,1] stress score range.
// Estimators may extrapolate outside it; the clipped value is what gets
// stored and ranked.
func ClipScore(raw float64) float64 {
	switch {
	case raw < 0:
		return 0
	case raw > 1:
		return 1
	default:
		return raw
	}
}

// StressThresholds are the upper bounds of the Low, Moderate, and High
// categories. Scores at or above High are Critical.
type StressThresholds struct {
	Low      float64
	Moderate float64
	High     float64
}

// DefaultStressThresholds match the district's operational criteria.
var DefaultStressThresholds = StressThresholds{Low: 0.3, Moderate: 0.5, High: 0.7}

// Validate checks that the thresholds are strictly ascending within (0,1).
func (t StressThresholds) Validate() error {
	if !(0 < t.Low && t.Low < t.Moderate && t.Moderate < t.High && t.High < 1) {
		return fmt.Errorf("stress thresholds must be strictly ascending within (0,1), got %g/%g/%g",
			t.Low, t.Moderate, t.High)
	}
	return nil
}

// Categorize maps a clipped stress score to its label.
func (t StressThresholds) Categorize(score float64) string {
	switch {
	case score < t.Low:
		return StressLow
	case score < t.Moderate:
		return StressModerate
	case score < t.High:
		return StressHigh
	default:
		return StressCritical
	}
}
