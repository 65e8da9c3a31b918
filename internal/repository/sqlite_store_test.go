package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"productivity-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predictions.db")
	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Initialize())
	return store, path
}

func TestSQLiteStore_AppendLoadDelete(t *testing.T) {
	store, _ := newSQLiteStore(t)
	require.NoError(t, store.Initialize())

	recs := []models.PredictionRecord{
		record("Asli", "2024-01-01", 5.5),
		record("Deniz", "2024-01-03", 6),
		record("Asli", "2024-01-02", 7.25),
	}
	for _, r := range recs {
		require.NoError(t, store.Append(r))
	}

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, recs, all)

	require.NoError(t, store.DeleteUser("Asli"))
	all, err = store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []models.PredictionRecord{recs[1]}, all)

	require.NoError(t, store.DeleteUser("Nobody"))
	all, err = store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_CorruptSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE predictions (id INTEGER PRIMARY KEY, date TEXT, user TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.LoadAll()
	assert.ErrorIs(t, err, ErrStoreCorrupt)
	assert.ErrorIs(t, store.DeleteUser("Asli"), ErrStoreCorrupt)
}

func TestSQLiteStore_UninitializedIsEmpty(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fresh.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
