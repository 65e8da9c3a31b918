package features

import (
	"testing"

	"productivity-service/internal/ml"
	"productivity-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifacts() *ml.Artifacts {
	columns := []string{"Age", SleepFeature, "Sleep Quality", CaffeineFeature, ScreenFeature, ExerciseFeature, "Stress Level"}
	means := map[string]float64{
		"Age":           41.5,
		SleepFeature:    6.9,
		"Sleep Quality": 5.5,
		CaffeineFeature: 149.0,
		ScreenFeature:   91.0,
		ExerciseFeature: 44.0,
		"Stress Level":  5.4,
	}
	return ml.NewArtifacts(ml.NewLinearModel(0, make([]float64, len(columns))), means, columns)
}

func TestBuilder_BuildAppliesOverridesInColumnOrder(t *testing.T) {
	b := NewBuilder(testArtifacts())

	vec, err := b.BuildInput(models.MetricInput{SleepHours: 8.2, CaffeineMg: 50, ScreenMinutes: 15, ExerciseMinutes: 60})
	require.NoError(t, err)

	assert.Equal(t, []float64{41.5, 8.2, 5.5, 50, 15, 60, 5.4}, vec)
}

func TestBuilder_BuildDoesNotMutateMeans(t *testing.T) {
	art := testArtifacts()
	b := NewBuilder(art)

	_, err := b.Build(map[string]float64{SleepFeature: 4})
	require.NoError(t, err)

	assert.Equal(t, 6.9, art.Means[SleepFeature])
}

func TestBuilder_MissingMeanIsConfigurationError(t *testing.T) {
	art := testArtifacts()
	delete(art.Means, "Stress Level")
	b := NewBuilder(art)

	_, err := b.BuildInput(models.QuickForm.Defaults())
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "Stress Level")
	assert.ErrorIs(t, b.Validate(), ErrConfiguration)
}

func TestBuilder_OverrideCoversMissingMean(t *testing.T) {
	art := testArtifacts()
	delete(art.Means, SleepFeature)
	b := NewBuilder(art)

	assert.NoError(t, b.Validate())
}

func TestBuilder_Columns(t *testing.T) {
	b := NewBuilder(testArtifacts())
	cols := b.Columns()
	cols[0] = "changed"
	assert.Equal(t, "Age", b.Columns()[0])
}
