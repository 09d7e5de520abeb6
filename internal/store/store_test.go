package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"runs", "batches", "samples"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_ConnectionSettings(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_StampsSchemaVersion(t *testing.T) {
	s := createTestStore(t)

	got, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(schemaVersion), got)

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_runs_config_hash'",
	).Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_RefusesNewerHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaVersion)
}

func TestOpen_MemoryHistoriesAreSeparate(t *testing.T) {
	ctx := context.Background()

	a, err := Open(":memory:")
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.WriteRun(ctx, createTestRun(t, "run-1")))

	runs, err := b.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestWriteBatch_RejectsLineOutOfRange(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1")))

	samples := make([]uint32, 65)
	_, err := s.WriteBatch(ctx, createTestBatch(t, "run-1", 1, samples...))
	require.Error(t, err)

	batches, err := s.ReadBatches(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, batches, "a rejected batch leaves nothing behind")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}
