package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LinearModel is a serialized linear regressor (ridge, OLS, lasso all share the form)
type LinearModel struct {
	Type         string    `json:"type"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// NewLinearModel builds a model from coefficients in feature-column order
func NewLinearModel(intercept float64, coefficients []float64) *LinearModel {
	return &LinearModel{
		Type:         "linear",
		Intercept:    intercept,
		Coefficients: coefficients,
	}
}

// LoadLinearModel reads a linear model exported as JSON
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	model := &LinearModel{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(model.Coefficients) == 0 {
		return nil, fmt.Errorf("model %s has no coefficients", path)
	}
	if model.Type == "" {
		model.Type = "linear"
	}

	return model, nil
}

// Predict returns intercept + coefficients . features
func (m *LinearModel) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, len(m.Coefficients), len(features))
	}

	y := m.Intercept
	for i, x := range features {
		y += m.Coefficients[i] * x
	}
	return y, nil
}

// Name identifies the backend
func (m *LinearModel) Name() string {
	return m.Type
}

// Close is a no-op
func (m *LinearModel) Close() error {
	return nil
}
