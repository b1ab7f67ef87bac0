package estimator

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// ArtifactError reports a model or scaler artifact that could not be used:
// missing, corrupt, or not matching its partner. It triggers fallback
// estimation, never a pipeline abort.
type ArtifactError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artifact %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// modelArtifact is the serialized regression model. Only linear models are
// supported; the coefficients apply to scaled features in [FeatureColumns]
// order.
type modelArtifact struct {
	Kind         string    `json:"kind"`
	PairID       string    `json:"pair_id"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// scalerArtifact is the serialized feature-scaling transform fitted alongside
// the model.
type scalerArtifact struct {
	PairID string    `json:"pair_id"`
	Mean   []float64 `json:"mean"`
	Scale  []float64 `json:"scale"`
}

// Trained is the estimator variant backed by a pre-fitted model artifact and
// its matched scaler.
type Trained struct {
	intercept    float64
	coefficients []float64
	scaler       *Scaler
}

// LoadTrained reads and validates the model/scaler artifact pair. The two
// files carry a shared pair ID; a mismatch means the scaler was fitted on
// different data than the model, which is a correctness bug, so the pair is
// rejected. File handles are released on every exit path, including parse
// failure.
func LoadTrained(modelPath, scalerPath string) (*Trained, error) {
	var model modelArtifact
	if err := readJSONArtifact(modelPath, &model); err != nil {
		return nil, err
	}
	var scaler scalerArtifact
	if err := readJSONArtifact(scalerPath, &scaler); err != nil {
		return nil, err
	}

	if model.Kind != "linear" {
		return nil, &ArtifactError{Path: modelPath, Reason: fmt.Sprintf("unsupported model kind %q", model.Kind)}
	}
	if len(model.Coefficients) != len(FeatureColumns) {
		return nil, &ArtifactError{
			Path:   modelPath,
			Reason: fmt.Sprintf("model has %d coefficients, expected %d", len(model.Coefficients), len(FeatureColumns)),
		}
	}
	if model.PairID == "" || model.PairID != scaler.PairID {
		return nil, &ArtifactError{
			Path:   scalerPath,
			Reason: fmt.Sprintf("scaler pair ID %q does not match model pair ID %q", scaler.PairID, model.PairID),
		}
	}

	s := &Scaler{Mean: scaler.Mean, Scale: scaler.Scale}
	if err := s.validate(len(FeatureColumns)); err != nil {
		return nil, &ArtifactError{Path: scalerPath, Reason: "invalid scaler", Err: err}
	}

	return &Trained{
		intercept:    model.Intercept,
		coefficients: model.Coefficients,
		scaler:       s,
	}, nil
}

func readJSONArtifact(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return &ArtifactError{Path: path, Reason: "open", Err: err}
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return &ArtifactError{Path: path, Reason: "decode", Err: err}
	}
	return nil
}

// Predict scales each raw feature row with the model's matched transform and
// applies the linear model. Raw outputs are not clipped.
func (t *Trained) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		scaled, err := t.scaler.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		out[i] = t.intercept + floats.Dot(t.coefficients, scaled)
	}
	return out, nil
}

func (t *Trained) Source() Source { return SourceTrained }
