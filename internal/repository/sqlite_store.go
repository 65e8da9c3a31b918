package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"productivity-service/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps predictions in a single SQLite table with the same
// columns as the CSV schema. Append order is the autoincrement id.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteStore opens (but does not initialize) the database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	logger.Info("Prediction repository opened", zap.String("db_path", dbPath))

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Initialize creates the predictions table if it is missing
func (s *SQLiteStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT NOT NULL,
		date TEXT NOT NULL,
		prediction REAL NOT NULL,
		sleep_hours REAL NOT NULL,
		caffeine_mg INTEGER NOT NULL,
		screen_minutes INTEGER NOT NULL,
		exercise_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// checkSchema verifies the table columns match the prediction schema
func (s *SQLiteStore) checkSchema() error {
	rows, err := s.db.Query(`PRAGMA table_info(predictions)`)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("failed to scan schema: %w", err)
		}
		if name == "id" {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	// a missing table reads as an empty store, same as a missing CSV file
	if len(names) == 0 {
		return errNoTable
	}
	if !sameColumns(names) {
		return fmt.Errorf("%w: unexpected columns %q", ErrStoreCorrupt, strings.Join(names, ","))
	}
	return nil
}

var errNoTable = errors.New("predictions table does not exist")

// LoadAll reads every record in insertion order
func (s *SQLiteStore) LoadAll() ([]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSchema(); err != nil {
		if errors.Is(err, errNoTable) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT user, date, prediction, sleep_hours, caffeine_mg, screen_minutes, exercise_minutes
		FROM predictions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var (
			rec  models.PredictionRecord
			date string
		)
		err := rows.Scan(
			&rec.User,
			&date,
			&rec.Prediction,
			&rec.SleepHours,
			&rec.CaffeineMg,
			&rec.ScreenMinutes,
			&rec.ExerciseMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}
		rec.Date, err = time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", ErrStoreCorrupt, date)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}

	return records, nil
}

// Append inserts one record
func (s *SQLiteStore) Append(rec models.PredictionRecord) error {
	if strings.TrimSpace(rec.User) == "" {
		return fmt.Errorf("refusing to store a record without a user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO predictions (
			user, date, prediction, sleep_hours, caffeine_mg, screen_minutes, exercise_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.User,
		rec.DateString(),
		models.RoundScore(rec.Prediction),
		rec.SleepHours,
		rec.CaffeineMg,
		rec.ScreenMinutes,
		rec.ExerciseMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}

	return nil
}

// DeleteUser removes every record of user
func (s *SQLiteStore) DeleteUser(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSchema(); err != nil {
		if errors.Is(err, errNoTable) {
			return nil
		}
		return err
	}

	result, err := s.db.Exec(`DELETE FROM predictions WHERE user = ?`, user)
	if err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}

	deleted, _ := result.RowsAffected()
	s.logger.Info("Deleted user predictions",
		zap.String("user", user),
		zap.Int64("deleted", deleted))

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
