package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Acathla-fr/MutCapTouch/internal/bench"
	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
	"github.com/Acathla-fr/MutCapTouch/internal/store"
)

// Harness is the scenario execution engine for one scenario.
type Harness struct {
	store  *store.Store
	host   *bench.Host
	dev    *capture.Device
	runID  string
	seq    int64
	last   capture.BatchInfo
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
// See RunContext.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns the result.
//
// Each scenario runs on a fresh device and a fresh in-memory database.
// Failed expectations are reported in Result.Errors; the returned error is
// reserved for failures to execute at all.
//
// Execution flow:
//  1. Build the device, board and host; enable the interrupt
//  2. Run each batch (capture or abort) through the host
//  3. Store each drained batch, then read the run back
//  4. Evaluate batch expectations and assertions
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = "scenario-" + scenario.Name
	}
	ids := record.NewFixedGenerator(runID)

	result := NewResult(scenario.Name)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{store: st, logger: logger}
	cfg := scenario.Device.Config()
	dev, err := capture.New(cfg,
		capture.WithLogger(logger),
		capture.WithHooks(h.hooks(result)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	h.dev = dev
	h.host = bench.NewHost(bench.NewBoard(dev, bench.NewNetwork(cfg.Lines)), bench.WithHostLogger(logger))
	h.host.Init()

	run, err := record.NewRun(ids.Generate(), scenario.Name, "scenario", cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build run: %w", err)
	}
	h.runID = run.ID
	result.RunID = run.ID
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	var written []record.Batch
	for i, step := range scenario.Batches {
		b, err := h.executeBatch(ctx, i, step, result)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		if b != nil {
			written = append(written, *b)
		}
	}

	stored, err := st.ReadBatches(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back batches: %w", err)
	}
	result.Batches = stored
	if !slices.EqualFunc(written, stored, batchesEqual) {
		result.AddError(fmt.Sprintf("store round trip: wrote %d batches, read back %d differing", len(written), len(stored)))
	}

	result.Events = dev.Events().Raised()
	result.Interrupts = h.host.Interrupts()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// hooks records device activity into the result trace.
func (h *Harness) hooks(result *Result) capture.Hooks {
	return capture.Hooks{
		OnTransition: func(cycle uint64, from, to capture.State) {
			result.Trace = append(result.Trace, TraceEvent{
				Type:  KindTransition,
				Cycle: cycle,
				From:  from.String(),
				To:    to.String(),
			})
		},
		OnPush: func(cycle uint64, line int, value uint32) {
			result.Trace = append(result.Trace, TraceEvent{
				Type:  KindPush,
				Cycle: cycle,
				Line:  line,
				Value: value,
			})
		},
		OnEvent: func(cycle uint64) {
			result.Trace = append(result.Trace, TraceEvent{Type: KindEvent, Cycle: cycle})
		},
		OnBatch: func(info capture.BatchInfo) {
			h.last = info
			result.Trace = append(result.Trace, TraceEvent{
				Type:       KindBatch,
				Cycle:      info.EndCycle,
				Index:      info.Index,
				StartCycle: info.StartCycle,
				Elapsed:    info.Run.Elapsed,
				TimedOut:   info.Run.TimedOut,
				Aborted:    info.Run.Aborted,
			})
		},
	}
}

// executeBatch runs one step. Returns the stored batch, or nil for an
// aborted step.
func (h *Harness) executeBatch(ctx context.Context, i int, step BatchStep, result *Result) (*record.Batch, error) {
	delays := step.NetworkDelays()

	if step.AbortAfter != nil {
		if err := h.host.AbortCapture(ctx, delays, *step.AbortAfter); err != nil {
			result.AddError(fmt.Sprintf("batches[%d]: %v", i, err))
		}
		return nil, nil
	}

	samples, err := h.host.ReadCapture(ctx, delays)
	if err != nil {
		return nil, err
	}

	h.seq++
	b, err := record.NewBatch(h.runID, h.seq, h.last, samples)
	if err != nil {
		return nil, err
	}
	if _, err := h.store.WriteBatch(ctx, b); err != nil {
		return nil, err
	}
	h.logger.Debug("batch stored", "run", h.runID, "seq", b.Seq, "id", b.ID)

	if step.Expect != nil {
		checkExpect(i, b, *step.Expect, result)
	}
	return &b, nil
}

func checkExpect(i int, b record.Batch, want BatchExpect, result *Result) {
	if want.Samples != nil && !slices.Equal(want.Samples, b.Samples) {
		result.AddError(fmt.Sprintf("batches[%d]: samples = %v, expected %v", i, b.Samples, want.Samples))
	}
	if want.TimedOut != nil && *want.TimedOut != b.TimedOut {
		result.AddError(fmt.Sprintf("batches[%d]: timed_out = %t, expected %t", i, b.TimedOut, *want.TimedOut))
	}
}

func batchesEqual(a, b record.Batch) bool {
	return a.ID == b.ID &&
		a.RunID == b.RunID &&
		a.Seq == b.Seq &&
		a.StartCycle == b.StartCycle &&
		a.EndCycle == b.EndCycle &&
		a.Elapsed == b.Elapsed &&
		a.TimedOut == b.TimedOut &&
		slices.Equal(a.Samples, b.Samples)
}

// RunAll executes scenarios concurrently, each on its own device and
// store, and returns the results in input order. limit bounds the number
// of scenarios in flight (limit <= 0 means no bound). The first execution
// error cancels the remaining scenarios.
func RunAll(ctx context.Context, scenarios []*Scenario, limit int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			r, err := RunContext(ctx, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
