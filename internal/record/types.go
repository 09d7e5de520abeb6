package record

import "github.com/Acathla-fr/MutCapTouch/internal/capture"

// Run is a capture session on one device configuration.
type Run struct {
	// ID is a UUIDv7 string (or a fixed string in tests).
	ID string `json:"id"`

	// Label is free text, e.g. a scenario name or board identifier.
	Label string `json:"label"`

	// Source names what produced the run: "capture", "run" or "scenario".
	Source string `json:"source"`

	// Config is the device configuration the batches were taken with.
	Config capture.Config `json:"-"`

	// ConfigHash is ConfigHash(Config).
	ConfigHash string `json:"config_hash"`
}

// Batch is one drained capture batch.
type Batch struct {
	// ID is BatchID over the fields below.
	ID string `json:"id"`

	RunID string `json:"run_id"`

	// Seq is the 1-based position of the batch in its run.
	Seq int64 `json:"seq"`

	// StartCycle and EndCycle are device clock cycles (first RUN cycle,
	// last WAIT cycle).
	StartCycle uint64 `json:"start_cycle"`
	EndCycle   uint64 `json:"end_cycle"`

	// Elapsed is the counter value when RUN ended.
	Elapsed  uint32 `json:"elapsed"`
	TimedOut bool   `json:"timed_out"`

	// Samples holds one charge time per line, in line order.
	Samples []uint32 `json:"samples"`
}

// NewBatch builds a batch from a finished device batch and its drained
// samples, computing its ID.
func NewBatch(runID string, seq int64, info capture.BatchInfo, samples []uint32) (Batch, error) {
	b := Batch{
		RunID:      runID,
		Seq:        seq,
		StartCycle: info.StartCycle,
		EndCycle:   info.EndCycle,
		Elapsed:    info.Run.Elapsed,
		TimedOut:   info.Run.TimedOut,
		Samples:    samples,
	}
	id, err := BatchID(b)
	if err != nil {
		return Batch{}, err
	}
	b.ID = id
	return b, nil
}

// NewRun builds a run record, computing the config hash.
func NewRun(id, label, source string, cfg capture.Config) (Run, error) {
	h, err := ConfigHash(cfg)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:         id,
		Label:      label,
		Source:     source,
		Config:     cfg,
		ConfigHash: h,
	}, nil
}
