package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1")

	require.NoError(t, s.WriteRun(ctx, run))
	require.NoError(t, s.WriteRun(ctx, run))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteBatch_InsertsSamples(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1")))

	b := createTestBatch(t, "run-1", 1, 3, 7, 10, 9)
	inserted, err := s.WriteBatch(ctx, b)
	require.NoError(t, err)
	assert.True(t, inserted)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM samples WHERE batch_id = ?", b.ID).Scan(&count))
	assert.Equal(t, 4, count)
}

func TestWriteBatch_Duplicate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1")))

	b := createTestBatch(t, "run-1", 1, 3, 7, 10, 9)
	_, err := s.WriteBatch(ctx, b)
	require.NoError(t, err)

	inserted, err := s.WriteBatch(ctx, b)
	require.NoError(t, err)
	assert.False(t, inserted, "second write is a no-op")

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&count))
	assert.Equal(t, 4, count)
}

func TestWriteBatch_SameSeqDifferentContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1")))

	_, err := s.WriteBatch(ctx, createTestBatch(t, "run-1", 1, 1, 2))
	require.NoError(t, err)

	_, err = s.WriteBatch(ctx, createTestBatch(t, "run-1", 1, 2, 1))
	assert.Error(t, err, "UNIQUE(run_id, seq) rejects a conflicting batch")
}

func TestWriteBatch_IDMismatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1")))

	b := createTestBatch(t, "run-1", 1, 3, 7)
	b.Samples = []uint32{3, 8}

	_, err := s.WriteBatch(ctx, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match content")
}

func TestWriteBatch_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteBatch(context.Background(), createTestBatch(t, "missing", 1, 1))
	assert.Error(t, err, "foreign key enforced")
}
