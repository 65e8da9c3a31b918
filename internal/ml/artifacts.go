package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrShapeMismatch is returned by a model that cannot accept the given vector
var ErrShapeMismatch = errors.New("feature vector shape mismatch")

// Model is a trained regression model: ordered feature vector in, scalar out
type Model interface {
	Predict(ctx context.Context, features []float64) (float64, error)
	Name() string
	Close() error
}

// Artifacts bundles the trained model with the metadata it was trained with.
// It is built once at startup and treated as read-only afterwards.
type Artifacts struct {
	Model   Model
	Means   map[string]float64
	Columns []string
}

// NewArtifacts copies means and columns so later mutation by the caller cannot leak in
func NewArtifacts(model Model, means map[string]float64, columns []string) *Artifacts {
	m := make(map[string]float64, len(means))
	for k, v := range means {
		m[k] = v
	}
	c := make([]string, len(columns))
	copy(c, columns)

	return &Artifacts{
		Model:   model,
		Means:   m,
		Columns: c,
	}
}

// Close releases the model
func (a *Artifacts) Close() error {
	if a == nil || a.Model == nil {
		return nil
	}
	return a.Model.Close()
}

// LoadMeans reads the feature-means mapping (JSON object of name -> value)
func LoadMeans(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature means: %w", err)
	}

	var means map[string]float64
	if err := json.Unmarshal(data, &means); err != nil {
		return nil, fmt.Errorf("failed to decode feature means: %w", err)
	}
	if len(means) == 0 {
		return nil, fmt.Errorf("feature means file %s is empty", path)
	}

	return means, nil
}

// LoadColumns reads the ordered feature-column list (JSON array of names)
func LoadColumns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature columns: %w", err)
	}

	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("failed to decode feature columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("feature columns file %s is empty", path)
	}

	return columns, nil
}
