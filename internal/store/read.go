package store

import (
	"context"
	"fmt"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// RunSummary is a run with its batch statistics, as listed by ListRuns.
type RunSummary struct {
	record.Run
	Batches  int
	TimedOut int
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (record.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, source, config, config_hash
		FROM runs
		WHERE id = ?
	`, id)

	var run record.Run
	var cfgJSON string
	if err := row.Scan(&run.ID, &run.Label, &run.Source, &cfgJSON, &run.ConfigHash); err != nil {
		return record.Run{}, err
	}
	cfg, err := unmarshalConfig(cfgJSON)
	if err != nil {
		return record.Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	run.Config = cfg
	return run, nil
}

// ListRuns returns every run in insertion order with batch counts.
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.source, r.config, r.config_hash,
		       COUNT(b.id), COALESCE(SUM(b.timed_out), 0)
		FROM runs r
		LEFT JOIN batches b ON b.run_id = r.id
		GROUP BY r.rowid
		ORDER BY r.rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var sum RunSummary
		var cfgJSON string
		if err := rows.Scan(
			&sum.ID, &sum.Label, &sum.Source, &cfgJSON, &sum.ConfigHash,
			&sum.Batches, &sum.TimedOut,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if sum.Config, err = unmarshalConfig(cfgJSON); err != nil {
			return nil, fmt.Errorf("run %s: %w", sum.ID, err)
		}
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadBatches returns the batches of a run ordered by seq, each with its
// samples in line order.
// Returns an empty slice (not nil) if the run has no batches.
func (s *Store) ReadBatches(ctx context.Context, runID string) ([]record.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, start_cycle, end_cycle, elapsed, timed_out
		FROM batches
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	batches := []record.Batch{}
	for rows.Next() {
		var b record.Batch
		var start, end, elapsed int64
		if err := rows.Scan(&b.ID, &b.RunID, &b.Seq, &start, &end, &elapsed, &b.TimedOut); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartCycle = uint64(start)
		b.EndCycle = uint64(end)
		b.Elapsed = uint32(elapsed)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	// Single connection pool: release it before querying samples.
	rows.Close()

	for i := range batches {
		samples, err := s.readSamples(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Samples = samples
	}
	return batches, nil
}

// ReadBatch retrieves a single batch with its samples.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadBatch(ctx context.Context, id string) (record.Batch, error) {
	var b record.Batch
	var start, end, elapsed int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, seq, start_cycle, end_cycle, elapsed, timed_out
		FROM batches
		WHERE id = ?
	`, id).Scan(&b.ID, &b.RunID, &b.Seq, &start, &end, &elapsed, &b.TimedOut)
	if err != nil {
		return record.Batch{}, err
	}
	b.StartCycle = uint64(start)
	b.EndCycle = uint64(end)
	b.Elapsed = uint32(elapsed)

	if b.Samples, err = s.readSamples(ctx, id); err != nil {
		return record.Batch{}, err
	}
	return b, nil
}

func (s *Store) readSamples(ctx context.Context, batchID string) ([]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM samples
		WHERE batch_id = ?
		ORDER BY line ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []uint32{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, uint32(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}
