package capture

import (
	"fmt"
	"log/slog"
)

// BatchInfo describes a finished batch, reported when the sequencer
// returns to IDLE.
type BatchInfo struct {
	// Index counts batches from 0 since the device was created.
	Index uint64

	// StartCycle is the clock cycle of the first RUN cycle.
	StartCycle uint64

	// EndCycle is the clock cycle of the WAIT (or abort) cycle.
	EndCycle uint64

	// Run summarizes the RUN phase.
	Run RunResult
}

// Hooks are optional callbacks invoked from Tick. Nil hooks are skipped.
type Hooks struct {
	OnTransition func(cycle uint64, from, to State)
	OnPush       func(cycle uint64, line int, value uint32)
	OnEvent      func(cycle uint64)
	OnBatch      func(info BatchInfo)
}

// Device is one capture core with its register surface.
//
// CRITICAL: Tick is the only place state advances. Register accesses
// happen between ticks, exactly as bus transactions happen between clock
// edges on the real core.
type Device struct {
	cfg    Config
	seq    *Sequencer
	queue  *ResultQueue
	events EventManager
	clock  *Clock

	start bool // ctrl start latch
	abort bool

	batches    uint64
	batchStart uint64
	stalled    bool

	// idle counts consecutive completed IDLE cycles, saturating at
	// cfg.SyncStages. The lines float during SAVE and WAIT; a start is held
	// until the synchronizer has been flushed with driven-low levels.
	idle int

	hooks  Hooks
	logger *slog.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		d.logger = l
	}
}

// WithHooks installs tick callbacks.
func WithHooks(h Hooks) Option {
	return func(d *Device) {
		d.hooks = h
	}
}

// New creates a device in IDLE with an empty queue.
// Returns an INVALID_CONFIG error if cfg does not validate.
func New(cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new device: %w", err)
	}
	if cfg.CounterBits == 0 {
		cfg.CounterBits = DefaultCounterBits
	}

	d := &Device{
		cfg:    cfg,
		seq:    NewSequencer(cfg),
		queue:  NewResultQueue(cfg.QueueDepth()),
		clock:  NewClock(),
		logger: slog.Default(),
		idle:   cfg.SyncStages,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the device parameters.
func (d *Device) Config() Config {
	return d.cfg
}

// State returns the sequencer phase.
func (d *Device) State() State {
	return d.seq.State()
}

// Sequencer exposes the state machine for inspection.
func (d *Device) Sequencer() *Sequencer {
	return d.seq
}

// Cycle returns the number of clock edges applied so far.
func (d *Device) Cycle() uint64 {
	return d.clock.Current()
}

// Batches returns the number of completed (or aborted) batches.
func (d *Device) Batches() uint64 {
	return d.batches
}

// Busy reports whether a batch is in progress.
func (d *Device) Busy() bool {
	return d.seq.State() != StateIdle || d.start
}

// Drive returns the pad outputs for the coming edge.
func (d *Device) Drive() Outputs {
	return d.seq.Drive()
}

// Tick applies one clock edge with the given line input levels.
func (d *Device) Tick(lines Mask) Outputs {
	cycle := d.clock.Next()
	from := d.seq.State()

	out := d.seq.Step(Inputs{
		Start:      d.start && d.settled(),
		Abort:      d.abort,
		Lines:      lines,
		QueueReady: !d.queue.Full(),
	})
	if out.StartAck {
		d.start = false
	}
	d.abort = false

	if out.WriteValid {
		if err := d.queue.Push(out.WriteData); err != nil {
			// QueueReady gates every write; reaching here is a logic error.
			panic(fmt.Sprintf("capture: write with full queue: %v", err))
		}
		if d.hooks.OnPush != nil {
			d.hooks.OnPush(cycle, out.WriteLine, out.WriteData)
		}
	}
	d.noteStall(from, out)

	if d.events.sample(!d.queue.Empty()) && d.hooks.OnEvent != nil {
		d.hooks.OnEvent(cycle)
	}

	to := d.seq.State()
	if from == StateIdle && to == StateIdle {
		d.idle = min(d.idle+1, d.cfg.SyncStages)
	} else {
		d.idle = 0
	}
	if to != from {
		d.transition(cycle, from, to)
	}
	return out
}

// settled reports whether the current IDLE cycle completes a flush of the
// input synchronizer, so the first RUN cycle sees only driven-low levels.
func (d *Device) settled() bool {
	return d.idle+1 >= d.cfg.SyncStages
}

func (d *Device) noteStall(from State, out Outputs) {
	stalled := from == StateSave && !out.WriteValid
	if stalled && !d.stalled {
		d.logger.Warn("result queue full, drain stalled",
			"batch", d.batches,
			"capacity", d.queue.Capacity(),
		)
	}
	d.stalled = stalled
}

func (d *Device) transition(cycle uint64, from, to State) {
	if d.hooks.OnTransition != nil {
		d.hooks.OnTransition(cycle, from, to)
	}

	switch {
	case to == StateRun:
		// The RUN phase begins on the next edge.
		d.batchStart = cycle + 1
		d.logger.Debug("batch started", "batch", d.batches, "cycle", d.batchStart)

	case from == StateRun && to == StateSave:
		run := d.seq.LastRun()
		d.logger.Debug("run finished",
			"batch", d.batches,
			"elapsed", run.Elapsed,
			"timed_out", run.TimedOut,
			"fired", run.Fired.Bits(d.cfg.Lines),
		)

	case to == StateIdle:
		info := BatchInfo{
			Index:      d.batches,
			StartCycle: d.batchStart,
			EndCycle:   cycle,
			Run:        d.seq.LastRun(),
		}
		d.batches++
		if info.Run.Aborted {
			d.logger.Info("batch aborted", "batch", info.Index, "elapsed", info.Run.Elapsed)
		} else {
			d.logger.Info("batch completed",
				"batch", info.Index,
				"timed_out", info.Run.TimedOut,
				"cycles", info.Run.Elapsed,
			)
		}
		if d.hooks.OnBatch != nil {
			d.hooks.OnBatch(info)
		}
	}
}

// WriteCtrl writes the ctrl register. Bit 0 requests a batch.
// The request is ignored while a batch is in progress.
func (d *Device) WriteCtrl(v uint32) {
	if v&1 == 0 {
		return
	}
	if d.Busy() {
		d.logger.Debug("start ignored, batch in progress",
			"state", d.seq.State().String(),
			"cycle", d.clock.Current(),
		)
		return
	}
	d.start = true
}

// ReadCtrl reads back the ctrl register (the pending start bit).
func (d *Device) ReadCtrl() uint32 {
	if d.start {
		return 1
	}
	return 0
}

// Abort requests that the current RUN phase be abandoned on the next
// edge. No samples are queued; cells latched so far keep their values
// until the next start clears them (see Config.ClearOnStart). The request
// has no effect outside RUN: a drain that has begun always completes.
func (d *Device) Abort() {
	if d.seq.State() == StateRun {
		d.abort = true
	}
}

// ReadStatus reads the status register.
func (d *Device) ReadStatus() Status {
	return statusOf(d.queue)
}

// ReadCapdata reads the capdata register, popping the oldest sample.
// Returns an EMPTY_QUEUE error when fifo_empty is set.
func (d *Device) ReadCapdata() (uint32, error) {
	return d.queue.Dequeue()
}

// Queue exposes the result queue.
func (d *Device) Queue() *ResultQueue {
	return d.queue
}

// Events exposes the event manager (ev_status, ev_pending, ev_enable).
func (d *Device) Events() *EventManager {
	return &d.events
}
