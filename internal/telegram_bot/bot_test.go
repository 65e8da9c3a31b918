package telegram_bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"productivity-service/internal/features"
	"productivity-service/internal/ml"
	"productivity-service/internal/models"
	"productivity-service/internal/predictor"
	"productivity-service/internal/repository"
	"productivity-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBot(t *testing.T) (*Bot, *repository.CSVStore) {
	t.Helper()
	columns := []string{features.SleepFeature, features.CaffeineFeature, features.ScreenFeature, features.ExerciseFeature}
	means := map[string]float64{
		features.SleepFeature:    7,
		features.CaffeineFeature: 150,
		features.ScreenFeature:   90,
		features.ExerciseFeature: 30,
	}
	// default input scores exactly 6
	art := ml.NewArtifacts(ml.NewLinearModel(-1, []float64{1, 0, 0, 0}), means, columns)

	store := repository.NewCSVStore(filepath.Join(t.TempDir(), "user_predictions.csv"), zap.NewNop())
	require.NoError(t, store.Initialize())

	svc := service.NewProductivity(features.NewBuilder(art), predictor.New(art, zap.NewNop()), store, zap.NewNop())
	svc.SetClock(func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) })

	return &Bot{svc: svc, logger: zap.NewNop()}, store
}

func TestParseMetrics(t *testing.T) {
	in, err := parseMetrics(models.QuickForm, nil)
	require.NoError(t, err)
	assert.Equal(t, models.QuickForm.Defaults(), in)

	in, err = parseMetrics(models.QuickForm, []string{"12", "400"})
	require.NoError(t, err)
	assert.Equal(t, models.MetricInput{SleepHours: 10, CaffeineMg: 300, ScreenMinutes: 90, ExerciseMinutes: 30}, in)

	in, err = parseMetrics(models.QuickForm, []string{"7", "1e20", "Inf", "1e300"})
	require.NoError(t, err)
	assert.Equal(t, models.MetricInput{SleepHours: 7, CaffeineMg: 300, ScreenMinutes: 180, ExerciseMinutes: 120}, in)

	_, err = parseMetrics(models.QuickForm, []string{"7", "lots"})
	assert.ErrorContains(t, err, "Caffeine")

	_, err = parseMetrics(models.QuickForm, []string{"7", "1", "2", "3", "4"})
	assert.Error(t, err)
}

func TestRespond_Predict(t *testing.T) {
	bot, store := newTestBot(t)

	reply := bot.respond(context.Background(), "predict", "8.5")
	assert.Contains(t, reply, "7.50 / 10")
	assert.Contains(t, reply, "sleep 8.5h")

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRespond_SaveHistoryDelete(t *testing.T) {
	ctx := context.Background()
	bot, store := newTestBot(t)

	reply := bot.respond(ctx, "save", "Asli 2024-01-01 8")
	assert.Equal(t, "Prediction saved for Asli on 2024-01-01: 7.00 / 10\n[#######---]", reply)

	reply = bot.respond(ctx, "save", "Asli 5")
	assert.Contains(t, reply, "on 2024-03-15: 4.00 / 10")

	reply = bot.respond(ctx, "history", "Asli")
	assert.Contains(t, reply, "Asli: 2 saved predictions")
	assert.Less(t, strings.Index(reply, "2024-03-15"), strings.Index(reply, "2024-01-01"))

	reply = bot.respond(ctx, "delete", "Asli")
	assert.Equal(t, "Records for Asli deleted. 0 records remain.", reply)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, "No records yet for Asli.", bot.respond(ctx, "history", "Asli"))
}

func TestSplitArgs(t *testing.T) {
	assert.Empty(t, splitArgs("   "))
	assert.Equal(t, []string{"Asli", "7.5"}, splitArgs(" Asli  7.5 "))
	assert.Equal(t, []string{"Asli Y", "2024-01-01", "8"}, splitArgs(`"Asli Y" 2024-01-01 8`))
	assert.Equal(t, []string{"Asli Y"}, splitArgs(`"Asli Y`))
}

func TestRespond_QuotedName(t *testing.T) {
	ctx := context.Background()
	bot, store := newTestBot(t)

	reply := bot.respond(ctx, "save", `"Asli Y" 2024-01-01 8`)
	assert.Equal(t, "Prediction saved for Asli Y on 2024-01-01: 7.00 / 10\n[#######---]", reply)

	assert.Contains(t, bot.respond(ctx, "history", `"Asli Y"`), "Asli Y: 1 saved predictions")

	reply = bot.respond(ctx, "delete", `"Asli Y"`)
	assert.Equal(t, "Records for Asli Y deleted. 0 records remain.", reply)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRespond_Usage(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	assert.Contains(t, bot.respond(ctx, "save", ""), "Usage")
	assert.Contains(t, bot.respond(ctx, "history", ""), "Usage")
	assert.Contains(t, bot.respond(ctx, "delete", "  "), "Usage")
	assert.Contains(t, bot.respond(ctx, "help", ""), "/predict")
	assert.Contains(t, bot.respond(ctx, "unknown", ""), "/help")
	assert.Contains(t, bot.respond(ctx, "save", "Asli 7 abc"), "must be a number")
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "[#---------]", scoreBar(0.1))
	assert.Equal(t, "[######----]", scoreBar(0.575))
	assert.Equal(t, "[##########]", scoreBar(1))
	assert.Equal(t, "[----------]", scoreBar(-1))
}
