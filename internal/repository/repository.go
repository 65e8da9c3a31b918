package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"productivity-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrStoreCorrupt means the backing store exists but does not follow the
// prediction schema. It is never repaired automatically.
var ErrStoreCorrupt = errors.New("prediction store is corrupt")

// Columns is the fixed schema of the prediction store, in order
var Columns = []string{
	"user",
	"date",
	"prediction",
	"sleep_hours",
	"caffeine_mg",
	"screen_minutes",
	"exercise_minutes",
}

// Store persists prediction records
type Store interface {
	Initialize() error
	LoadAll() ([]models.PredictionRecord, error)
	Append(rec models.PredictionRecord) error
	DeleteUser(user string) error
	Close() error
}

// Open returns the store for the configured backend type ("csv" or "sqlite")
func Open(storeType, path string, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(storeType) {
	case "", "csv":
		return NewCSVStore(path, logger), nil
	case "sqlite":
		store, err := NewSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", storeType)
	}
}

// EncodeRecord formats a record as a CSV row in column order
func EncodeRecord(rec models.PredictionRecord) []string {
	return []string{
		rec.User,
		rec.DateString(),
		decimal.NewFromFloat(rec.Prediction).StringFixed(2),
		strconv.FormatFloat(rec.SleepHours, 'f', -1, 64),
		strconv.Itoa(rec.CaffeineMg),
		strconv.Itoa(rec.ScreenMinutes),
		strconv.Itoa(rec.ExerciseMinutes),
	}
}

func decodeRecord(row []string) (models.PredictionRecord, error) {
	if len(row) != len(Columns) {
		return models.PredictionRecord{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(row))
	}

	date, err := time.Parse(models.DateLayout, row[1])
	if err != nil {
		return models.PredictionRecord{}, fmt.Errorf("invalid date %q: %w", row[1], err)
	}
	prediction, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return models.PredictionRecord{}, fmt.Errorf("invalid prediction %q: %w", row[2], err)
	}
	sleep, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.PredictionRecord{}, fmt.Errorf("invalid sleep_hours %q: %w", row[3], err)
	}

	ints := make([]int, 3)
	for i, raw := range row[4:] {
		v, err := parseInt(raw)
		if err != nil {
			return models.PredictionRecord{}, fmt.Errorf("invalid %s %q: %w", Columns[4+i], raw, err)
		}
		ints[i] = v
	}

	return models.PredictionRecord{
		User:            row[0],
		Date:            date,
		Prediction:      prediction,
		SleepHours:      sleep,
		CaffeineMg:      ints[0],
		ScreenMinutes:   ints[1],
		ExerciseMinutes: ints[2],
	}, nil
}

// parseInt also accepts integral floats such as "150.0"
func parseInt(raw string) (int, error) {
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func sameColumns(got []string) bool {
	if len(got) != len(Columns) {
		return false
	}
	for i, c := range Columns {
		if strings.TrimSpace(got[i]) != c {
			return false
		}
	}
	return true
}
