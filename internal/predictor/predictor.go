package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"productivity-service/internal/ml"
	"productivity-service/internal/models"

	"go.uber.org/zap"
)

// ErrModelInference means the model rejected its input. The failure is
// deterministic for a given vector, so callers must not retry.
var ErrModelInference = errors.New("model inference failed")

// Predictor runs the trained model and bounds its output
type Predictor struct {
	model    ml.Model
	width    int
	min, max float64
	logger   *zap.Logger
}

// New creates a predictor over the loaded artifacts
func New(art *ml.Artifacts, logger *zap.Logger) *Predictor {
	return &Predictor{
		model:  art.Model,
		width:  len(art.Columns),
		min:    models.MinScore,
		max:    models.MaxScore,
		logger: logger,
	}
}

// Predict returns the model output for vector, clipped to [1, 10]
func (p *Predictor) Predict(ctx context.Context, vector []float64) (float64, error) {
	if len(vector) != p.width {
		return 0, fmt.Errorf("%w: vector has %d features, model expects %d", ErrModelInference, len(vector), p.width)
	}

	raw, err := p.model.Predict(ctx, vector)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrModelInference, p.model.Name(), err)
	}
	if math.IsNaN(raw) {
		return 0, fmt.Errorf("%w: %s returned NaN", ErrModelInference, p.model.Name())
	}

	score := Clip(raw, p.min, p.max)
	p.logger.Debug("Model prediction",
		zap.String("model", p.model.Name()),
		zap.Float64("raw", raw),
		zap.Float64("score", score))

	return score, nil
}

// ModelName reports which backend serves predictions
func (p *Predictor) ModelName() string {
	return p.model.Name()
}

// Clip constrains v to [lo, hi]
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
