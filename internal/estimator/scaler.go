package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes a raw feature vector with fit-time mean and scale
// parameters. A scaler is only valid for the model it was fitted alongside;
// the artifact loader enforces the pairing.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes per-column mean and standard deviation over the given
// feature rows.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	dims := len(rows[0])

	col := make([]float64, len(rows))
	s := &Scaler{
		Mean:  make([]float64, dims),
		Scale: make([]float64, dims),
	}
	for j := 0; j < dims; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			// A constant column carries no signal; unit scale keeps the
			// transform defined.
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform standardizes one raw feature row.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *Scaler) validate(dims int) error {
	if len(s.Mean) != dims || len(s.Scale) != dims {
		return fmt.Errorf("scaler dimensions %d/%d do not match %d features",
			len(s.Mean), len(s.Scale), dims)
	}
	for j, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler has zero scale for feature %d", j)
		}
	}
	return nil
}
