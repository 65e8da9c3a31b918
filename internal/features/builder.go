package features

import (
	"errors"
	"fmt"

	"productivity-service/internal/ml"
	"productivity-service/internal/models"
)

// ErrConfiguration means the model's column list and its training means disagree.
// It cannot be fixed at runtime; the artifacts have to be regenerated.
var ErrConfiguration = errors.New("model configuration mismatch")

// Model column names for the metrics a user controls
const (
	SleepFeature    = "Total Sleep Hours"
	CaffeineFeature = "Caffeine Intake (mg)"
	ScreenFeature   = "Screen Time Before Bed (mins)"
	ExerciseFeature = "Exercise (mins/day)"
)

// Builder assembles complete, ordered feature vectors
type Builder struct {
	means   map[string]float64
	columns []string
}

// NewBuilder creates a builder over the loaded artifacts
func NewBuilder(art *ml.Artifacts) *Builder {
	return &Builder{
		means:   art.Means,
		columns: art.Columns,
	}
}

// Overrides maps user metrics to their model feature names
func Overrides(in models.MetricInput) map[string]float64 {
	return map[string]float64{
		SleepFeature:    in.SleepHours,
		CaffeineFeature: float64(in.CaffeineMg),
		ScreenFeature:   float64(in.ScreenMinutes),
		ExerciseFeature: float64(in.ExerciseMinutes),
	}
}

// Build starts from the historical means, applies overrides and emits values
// in column order.
func (b *Builder) Build(overrides map[string]float64) ([]float64, error) {
	working := make(map[string]float64, len(b.means)+len(overrides))
	for k, v := range b.means {
		working[k] = v
	}
	for k, v := range overrides {
		working[k] = v
	}

	vector := make([]float64, 0, len(b.columns))
	for _, col := range b.columns {
		v, ok := working[col]
		if !ok {
			return nil, fmt.Errorf("%w: no value for feature %q", ErrConfiguration, col)
		}
		vector = append(vector, v)
	}

	return vector, nil
}

// BuildInput is Build for the four user metrics
func (b *Builder) BuildInput(in models.MetricInput) ([]float64, error) {
	return b.Build(Overrides(in))
}

// Validate checks that every column is covered by the means or a user metric
func (b *Builder) Validate() error {
	_, err := b.BuildInput(models.QuickForm.Defaults())
	return err
}

// Columns returns the model's feature order
func (b *Builder) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}
