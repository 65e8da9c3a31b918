package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"productivity-service/internal/models"

	"go.uber.org/zap"
)

// CSVStore keeps predictions in a flat CSV file with a fixed header.
// Rows are kept in append order; nothing is ever sorted on disk.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewCSVStore creates a store backed by the file at path
func NewCSVStore(path string, logger *zap.Logger) *CSVStore {
	return &CSVStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the backing file location
func (s *CSVStore) Path() string {
	return s.path
}

// Initialize creates the file with only the header if it does not exist yet
func (s *CSVStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initialize()
}

func (s *CSVStore) initialize() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	s.logger.Info("Prediction store created", zap.String("path", s.path))
	return nil
}

// LoadAll reads every record in file order
func (s *CSVStore) LoadAll() ([]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	records := make([]models.PredictionRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			// header is line 1
			return nil, fmt.Errorf("%w: line %d: %v", ErrStoreCorrupt, i+2, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// readRows returns the raw data rows after validating the header.
// A missing file reads as empty.
func (s *CSVStore) readRows() ([][]string, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrStoreCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !sameColumns(header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrStoreCorrupt, strings.Join(header, ","))
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Append writes one row at the end of the file without touching existing rows
func (s *CSVStore) Append(rec models.PredictionRecord) error {
	if strings.TrimSpace(rec.User) == "" {
		return fmt.Errorf("refusing to store a record without a user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initialize(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open store for append: %w", err)
	}
	defer file.Close()

	if err := terminateLastLine(file); err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if err := w.Write(EncodeRecord(rec)); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync store: %w", err)
	}

	return nil
}

// terminateLastLine adds the newline a hand-edited file may lack, so the
// next row never merges into the last one
func terminateLastLine(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat store: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("failed to read store tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}

	if _, err := file.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to terminate last row: %w", err)
	}
	return nil
}

// DeleteUser rewrites the file keeping every row whose user differs.
// Retained rows are written back exactly as they were read.
func (s *CSVStore) DeleteUser(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return err
	}

	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 && row[0] == user {
			continue
		}
		kept = append(kept, row)
	}

	if err := s.rewrite(kept); err != nil {
		return err
	}

	s.logger.Info("Deleted user predictions",
		zap.String("user", user),
		zap.Int("deleted", len(rows)-len(kept)),
		zap.Int("remaining", len(kept)))

	return nil
}

// rewrite replaces the file via a temp file in the same directory
func (s *CSVStore) rewrite(rows [][]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set store permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}

	return nil
}

// Close is a no-op; the file is opened per operation
func (s *CSVStore) Close() error {
	return nil
}
