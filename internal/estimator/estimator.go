// Package estimator maps raw settlement feature vectors to water stress
// scores. Two variants satisfy the same interface: a trained model loaded
// from a serialized artifact pair, and a deterministic fallback bootstrapped
// from synthetic data when no artifact is available. The variant is selected
// once at startup, not re-checked per row.
package estimator

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
)

// Source identifies which estimator variant produced a score. It is carried
// on every downstream record so synthetic-data predictions are never mistaken
// for trained-model predictions.
type Source string

const (
	SourceTrained  Source = "trained"
	SourceFallback Source = "fallback"
)

// FeatureColumns is the raw input feature order every estimator expects.
// The scaler associated with a trained model was fitted on exactly these
// columns in exactly this order.
var FeatureColumns = []string{
	"rainfall_current",
	"rainfall_average",
	"groundwater_depth",
	"population",
	"current_storage",
}

// Estimator predicts one raw stress score per feature row. Raw outputs may
// fall outside [0,1] due to extrapolation; callers clip before storing.
type Estimator interface {
	Predict(rows [][]float64) ([]float64, error)
	Source() Source
}

// FeatureRow extracts a settlement's raw feature vector in [FeatureColumns]
// order.
func FeatureRow(s domain.Settlement) []float64 {
	return []float64{
		s.RainfallCurrent,
		s.RainfallAverage,
		s.GroundwaterDepth,
		float64(s.Population),
		s.CurrentStorage,
	}
}

// ValidFeatureRow reports whether every component is finite. Rows failing
// this check are excluded from prediction as a data-quality error rather than
// poisoning the batch.
func ValidFeatureRow(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Select loads the trained artifact pair, degrading to the deterministic
// fallback when the artifacts are missing, corrupt, or mismatched. Artifact
// problems are logged, never fatal: the caller always gets a working
// estimator, and its Source tells downstream which variant is active.
func Select(modelPath, scalerPath string, seed int64, samples int, logger *slog.Logger) (Estimator, error) {
	trained, err := LoadTrained(modelPath, scalerPath)
	if err == nil {
		logger.Info("trained stress estimator loaded",
			"model_file", modelPath,
			"scaler_file", scalerPath,
		)
		return trained, nil
	}

	logger.Warn("trained estimator unavailable, bootstrapping fallback",
		"error", err,
		"seed", seed,
	)

	fallback, ferr := NewFallback(seed, samples)
	if ferr != nil {
		return nil, fmt.Errorf("bootstrap fallback estimator: %w", ferr)
	}
	return fallback, nil
}
