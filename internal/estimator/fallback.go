package estimator

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Synthetic sampling bounds per feature, chosen from domain-realistic value
// ranges for the district (millimeters, meters, people, liters).
var syntheticBounds = [][2]float64{
	{100, 800},      // rainfall_current
	{600, 800},      // rainfall_average
	{150, 220},      // groundwater_depth
	{2000, 7000},    // population
	{50000, 300000}, // current_storage
}

// referenceCapacityLiters anchors the synthetic storage ratio. The synthetic
// set has no per-row capacity column, so labels use a representative tank.
const referenceCapacityLiters = 250000

// DefaultFallbackSamples is the synthetic training set size.
const DefaultFallbackSamples = 256

// Fallback is the estimator variant used when no trained artifact is
// available. It synthesizes a labeled training set from plausible feature
// ranges with a fixed seed, fits an ordinary least squares model on the
// standardized features, and predicts with that. Identical seeds produce
// identical scores.
type Fallback struct {
	model Trained
	seed  int64
}

// NewFallback bootstraps the deterministic fallback estimator.
func NewFallback(seed int64, samples int) (*Fallback, error) {
	if samples < len(FeatureColumns)+1 {
		return nil, fmt.Errorf("fallback needs at least %d samples, got %d", len(FeatureColumns)+1, samples)
	}

	rng := rand.New(rand.NewSource(seed))

	rows := make([][]float64, samples)
	for i := range rows {
		row := make([]float64, len(FeatureColumns))
		for j, b := range syntheticBounds {
			row[j] = b[0] + rng.Float64()*(b[1]-b[0])
		}
		rows[i] = row
	}

	labels := labelSyntheticRows(rows)

	scaler, err := FitScaler(rows)
	if err != nil {
		return nil, err
	}

	intercept, coefficients, err := fitLeastSquares(rows, labels, scaler)
	if err != nil {
		return nil, err
	}

	return &Fallback{
		model: Trained{
			intercept:    intercept,
			coefficients: coefficients,
			scaler:       scaler,
		},
		seed: seed,
	}, nil
}

// labelSyntheticRows applies the hand-specified stress rule: low storage,
// deep groundwater, large population, and a rainfall deficit all push the
// label up. Labels are min-max normalized to [0,1] over the synthetic set.
func labelSyntheticRows(rows [][]float64) []float64 {
	minDepth, maxDepth := math.Inf(1), math.Inf(-1)
	minPop, maxPop := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		minDepth = math.Min(minDepth, r[2])
		maxDepth = math.Max(maxDepth, r[2])
		minPop = math.Min(minPop, r[3])
		maxPop = math.Max(maxPop, r[3])
	}
	depthRange := maxDepth - minDepth
	popRange := maxPop - minPop

	labels := make([]float64, len(rows))
	for i, r := range rows {
		storageRatio := math.Min(r[4]/referenceCapacityLiters, 1)
		normDepth := 0.0
		if depthRange > 0 {
			normDepth = (r[2] - minDepth) / depthRange
		}
		normPop := 0.0
		if popRange > 0 {
			normPop = (r[3] - minPop) / popRange
		}
		rainfallDeviation := (r[0] - r[1]) / r[1]

		labels[i] = 0.4*(1-storageRatio) +
			0.3*normDepth +
			0.2*normPop +
			0.1*math.Max(-rainfallDeviation, 0)
	}

	minL, maxL := math.Inf(1), math.Inf(-1)
	for _, l := range labels {
		minL = math.Min(minL, l)
		maxL = math.Max(maxL, l)
	}
	if span := maxL - minL; span > 0 {
		for i := range labels {
			labels[i] = (labels[i] - minL) / span
		}
	}
	return labels
}

// fitLeastSquares solves the standardized design matrix (with an intercept
// column) against the labels via QR decomposition.
func fitLeastSquares(rows [][]float64, labels []float64, scaler *Scaler) (float64, []float64, error) {
	n := len(rows)
	d := len(FeatureColumns)

	x := mat.NewDense(n, d+1, nil)
	y := mat.NewDense(n, 1, labels)
	for i, row := range rows {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return 0, nil, err
		}
		x.Set(i, 0, 1)
		for j, v := range scaled {
			x.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return 0, nil, fmt.Errorf("solve least squares: %w", err)
	}

	coefficients := make([]float64, d)
	for j := 0; j < d; j++ {
		coefficients[j] = beta.At(j+1, 0)
	}
	return beta.At(0, 0), coefficients, nil
}

// Predict applies the bootstrapped model. Raw outputs are not clipped.
func (f *Fallback) Predict(rows [][]float64) ([]float64, error) {
	return f.model.Predict(rows)
}

func (f *Fallback) Source() Source { return SourceFallback }

// Seed returns the seed the synthetic training set was generated from.
func (f *Fallback) Seed() int64 { return f.seed }
