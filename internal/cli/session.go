package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/Acathla-fr/MutCapTouch/internal/bench"
	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/config"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
	"github.com/Acathla-fr/MutCapTouch/internal/store"
)

// StimulusOptions selects the crossing delays fed to the sensing network.
type StimulusOptions struct {
	Delays string // fixed delays, e.g. "3,7,-,9"
	Random bool   // draw delays per batch
	Seed   int64
	Min    int
	Max    int // exclusive; 0 means timeout+1
}

func addStimulusFlags(cmd *cobra.Command, s *StimulusOptions) {
	cmd.Flags().StringVar(&s.Delays, "delays", "", `per-line crossing delays, e.g. "3,7,-,9" ("-" never crosses)`)
	cmd.Flags().BoolVar(&s.Random, "random", false, "draw random delays for every batch")
	cmd.Flags().Int64Var(&s.Seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&s.Min, "min", 0, "smallest random delay")
	cmd.Flags().IntVar(&s.Max, "max", 0, "random delay upper bound, exclusive (default timeout+1)")
}

// source returns a function producing the delays of each batch.
func (s *StimulusOptions) source(cfg capture.Config) (func() []int, error) {
	switch {
	case s.Random && s.Delays != "":
		return nil, errors.New("--delays and --random are mutually exclusive")

	case s.Random:
		hi := s.Max
		if hi == 0 {
			hi = int(cfg.Timeout) + 1
		}
		if s.Min < 0 || hi <= s.Min {
			return nil, fmt.Errorf("random delay range [%d,%d) is empty", s.Min, hi)
		}
		rng := rand.New(rand.NewSource(s.Seed))
		return func() []int {
			return bench.RandomDelays(rng, cfg.Lines, s.Min, hi)
		}, nil

	case s.Delays != "":
		delays, err := bench.ParseDelays(s.Delays)
		if err != nil {
			return nil, err
		}
		if len(delays) != cfg.Lines {
			return nil, fmt.Errorf("--delays has %d values for %d lines", len(delays), cfg.Lines)
		}
		return func() []int { return delays }, nil

	default:
		return nil, errors.New("one of --delays or --random is required")
	}
}

// session is one device on a simulated board, optionally persisting every
// batch it captures.
type session struct {
	dev    *capture.Device
	host   *bench.Host
	store  *store.Store
	run    record.Run
	seq    int64
	last   capture.BatchInfo
	logger *slog.Logger
}

// newSession builds the device and writes the run record if st is set.
func newSession(ctx context.Context, cfg capture.Config, st *store.Store, run record.Run, logger *slog.Logger) (*session, error) {
	s := &session{store: st, run: run, logger: logger}

	dev, err := capture.New(cfg,
		capture.WithLogger(logger),
		capture.WithHooks(capture.Hooks{
			OnBatch: func(info capture.BatchInfo) { s.last = info },
		}),
	)
	if err != nil {
		return nil, err
	}
	s.dev = dev
	s.host = bench.NewHost(bench.NewBoard(dev, bench.NewNetwork(cfg.Lines)), bench.WithHostLogger(logger))
	s.host.Init()

	if st != nil {
		if err := st.WriteRun(ctx, run); err != nil {
			return nil, err
		}
		logger.Debug("run stored", "run", run.ID)
	}
	return s, nil
}

// next runs one batch and stores it.
func (s *session) next(ctx context.Context, delays []int) (record.Batch, error) {
	samples, err := s.host.ReadCapture(ctx, delays)
	if err != nil {
		return record.Batch{}, err
	}

	s.seq++
	b, err := record.NewBatch(s.run.ID, s.seq, s.last, samples)
	if err != nil {
		return record.Batch{}, err
	}
	if s.store != nil {
		if _, err := s.store.WriteBatch(ctx, b); err != nil {
			return record.Batch{}, err
		}
		s.logger.Debug("batch stored", "run", s.run.ID, "seq", b.Seq, "id", b.ID)
	}
	return b, nil
}

// loadConfig loads a device config, mapping load errors to exit errors.
func loadConfig(path string) (capture.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			return capture.Config{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load config [%s]", loadErr.Code), err)
		}
		return capture.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// openStore opens the database if path is set.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
