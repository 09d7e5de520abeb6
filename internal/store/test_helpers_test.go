package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run on a 4-line device with timeout 10.
func createTestRun(t *testing.T, id string) record.Run {
	t.Helper()
	cfg := capture.DefaultConfig(4, 4)
	cfg.Timeout = 10
	run, err := record.NewRun(id, "test", "capture", cfg)
	require.NoError(t, err)
	return run
}

// createTestBatch creates a batch with a valid content ID.
func createTestBatch(t *testing.T, runID string, seq int64, samples ...uint32) record.Batch {
	t.Helper()
	b := record.Batch{
		RunID:      runID,
		Seq:        seq,
		StartCycle: uint64(seq) * 100,
		EndCycle:   uint64(seq)*100 + 15,
		Elapsed:    10,
		TimedOut:   true,
		Samples:    samples,
	}
	b.ID = record.MustBatchID(b)
	return b
}
