package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"productivity-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const header = "user,date,prediction,sleep_hours,caffeine_mg,screen_minutes,exercise_minutes\n"

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func record(user, date string, score float64) models.PredictionRecord {
	return models.PredictionRecord{
		User:            user,
		Date:            day(date),
		Prediction:      score,
		SleepHours:      7.5,
		CaffeineMg:      120,
		ScreenMinutes:   45,
		ExerciseMinutes: 30,
	}
}

func newCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	store := NewCSVStore(filepath.Join(t.TempDir(), "data", "user_predictions.csv"), zap.NewNop())
	require.NoError(t, store.Initialize())
	return store
}

func TestCSVStore_InitializeIsIdempotent(t *testing.T) {
	store := newCSVStore(t)

	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, header, string(first))

	require.NoError(t, store.Append(record("Asli", "2024-01-01", 7.25)))
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	require.NoError(t, store.Initialize())
	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCSVStore_AppendThenLoadRoundTrip(t *testing.T) {
	store := newCSVStore(t)

	prior := record("Deniz", "2024-02-10", 4.5)
	require.NoError(t, store.Append(prior))

	rec := models.PredictionRecord{
		User:            "Asli",
		Date:            day("2024-01-01"),
		Prediction:      6.73,
		SleepHours:      7.1,
		CaffeineMg:      150,
		ScreenMinutes:   90,
		ExerciseMinutes: 30,
	}
	require.NoError(t, store.Append(rec))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, prior, all[0])
	assert.Equal(t, rec, all[1])
}

func TestCSVStore_AppendPreservesExistingBytes(t *testing.T) {
	store := newCSVStore(t)
	// hand-written row with formatting the writer would not produce
	existing := header + "Asli,2024-01-01,7.0,7.0,150.0,90,30\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(existing), 0o644))

	require.NoError(t, store.Append(record("Deniz", "2024-01-02", 5)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, existing+"Deniz,2024-01-02,5.00,7.5,120,45,30\n", string(data))

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 150, all[0].CaffeineMg)
}

func TestCSVStore_AppendAfterUnterminatedLastRow(t *testing.T) {
	store := newCSVStore(t)
	existing := header + "Asli,2024-01-01,5.00,7,150,90,30"
	require.NoError(t, os.WriteFile(store.Path(), []byte(existing), 0o644))

	require.NoError(t, store.Append(record("Deniz", "2024-01-02", 6)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, existing+"\nDeniz,2024-01-02,6.00,7.5,120,45,30\n", string(data))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Asli", all[0].User)
	assert.Equal(t, 5.0, all[0].Prediction)
	assert.Equal(t, "Deniz", all[1].User)
}

func TestCSVStore_AppendAfterUnterminatedHeader(t *testing.T) {
	store := newCSVStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(strings.TrimSuffix(header, "\n")), 0o644))

	require.NoError(t, store.Append(record("Asli", "2024-01-01", 5)))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Asli", all[0].User)
}

func TestCSVStore_UserWithComma(t *testing.T) {
	store := newCSVStore(t)
	require.NoError(t, store.Append(record("Yilmaz, Asli", "2024-01-01", 5)))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Yilmaz, Asli", all[0].User)
}

func TestCSVStore_DeleteUser(t *testing.T) {
	store := newCSVStore(t)
	recs := []models.PredictionRecord{
		record("Asli", "2024-01-01", 5),
		record("Deniz", "2024-01-01", 6),
		record("Asli", "2024-01-02", 7),
		record("Ece", "2024-01-03", 8),
	}
	for _, r := range recs {
		require.NoError(t, store.Append(r))
	}

	require.NoError(t, store.DeleteUser("Asli"))

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []models.PredictionRecord{recs[1], recs[3]}, all)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, header+"Deniz,2024-01-01,6.00,7.5,120,45,30\nEce,2024-01-03,8.00,7.5,120,45,30\n", string(data))
}

func TestCSVStore_DeleteUnknownUserLeavesFileUnchanged(t *testing.T) {
	store := newCSVStore(t)
	require.NoError(t, store.Append(record("Asli", "2024-01-01", 5)))
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser("Nobody"))

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCSVStore_CorruptHeader(t *testing.T) {
	store := newCSVStore(t)

	cases := map[string]string{
		"reordered": "date,user,prediction,sleep_hours,caffeine_mg,screen_minutes,exercise_minutes\n",
		"missing":   "user,date,prediction,sleep_hours,caffeine_mg,screen_minutes\n",
		"empty":     "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o644))

			_, err := store.LoadAll()
			assert.ErrorIs(t, err, ErrStoreCorrupt)

			// delete must not touch a corrupt file
			assert.ErrorIs(t, store.DeleteUser("Asli"), ErrStoreCorrupt)
			data, err := os.ReadFile(store.Path())
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestCSVStore_CorruptRow(t *testing.T) {
	store := newCSVStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(header+"Asli,not-a-date,5,7,150,90,30\n"), 0o644))

	_, err := store.LoadAll()
	assert.ErrorIs(t, err, ErrStoreCorrupt)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSVStore_MissingFileIsEmpty(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "absent.csv"), zap.NewNop())

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCSVStore_AppendRejectsBlankUser(t *testing.T) {
	store := newCSVStore(t)
	assert.Error(t, store.Append(record("  ", "2024-01-01", 5)))

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("csv", filepath.Join(dir, "p.csv"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, s)

	s, err = Open("sqlite", filepath.Join(dir, "p.db"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("parquet", filepath.Join(dir, "p"), zap.NewNop())
	assert.Error(t, err)
}
