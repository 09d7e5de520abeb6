package store

import (
	"context"
	"fmt"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, run record.Run) error {
	cfgJSON, err := marshalConfig(run.Config)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, source, config, config_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Label,
		run.Source,
		cfgJSON,
		run.ConfigHash,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteBatch inserts a batch and its samples in one transaction.
// Returns whether a new record was inserted; writing the same batch again
// is a no-op that returns false.
//
// The batch ID must match its content (record.BatchID) and the run must
// already exist (foreign key constraint).
func (s *Store) WriteBatch(ctx context.Context, b record.Batch) (inserted bool, err error) {
	want, err := record.BatchID(b)
	if err != nil {
		return false, fmt.Errorf("write batch: %w", err)
	}
	if b.ID != want {
		return false, fmt.Errorf("write batch: id %q does not match content (want %q)", b.ID, want)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, run_id, seq, start_cycle, end_cycle, elapsed, timed_out)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		b.RunID,
		b.Seq,
		int64(b.StartCycle),
		int64(b.EndCycle),
		int64(b.Elapsed),
		b.TimedOut,
	)
	if err != nil {
		return false, fmt.Errorf("write batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write batch: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (batch_id, line, value) VALUES (?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("write batch: prepare samples: %w", err)
	}
	defer stmt.Close()

	for line, v := range b.Samples {
		if _, err := stmt.ExecContext(ctx, b.ID, line, int64(v)); err != nil {
			return false, fmt.Errorf("write batch: sample %d: %w", line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write batch: commit: %w", err)
	}
	return true, nil
}
