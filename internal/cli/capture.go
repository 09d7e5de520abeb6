package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
	"github.com/Acathla-fr/MutCapTouch/internal/store"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	StimulusOptions
	Config   string
	Batches  int
	Database string
	Label    string
	Dump     bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs record.RunIDGenerator
}

// CaptureResult is the output of the capture command.
type CaptureResult struct {
	RunID   string         `json:"run_id"`
	Config  record.Object  `json:"config"`
	Batches []record.Batch `json:"batches"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	return newCaptureCommand(&CaptureOptions{RootOptions: rootOpts})
}

func newCaptureCommand(opts *CaptureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a number of batches",
		Long: `Run capture batches on a simulated device and print the samples.

The sensing network crosses threshold after the given per-line delays
(--delays) or after random delays drawn per batch (--random). Batches are
stored when --db is set.

Examples:
  captouch capture --config ./device.cue --delays 3,7,-,9
  captouch capture --config ./device.cue --random --seed 7 --batches 10
  captouch capture --config ./board --random --db ./captouch.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "device config file or directory (required)")
	cmd.Flags().IntVar(&opts.Batches, "batches", 1, "number of batches")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "run label")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "dump device registers after the last batch")
	addStimulusFlags(cmd, &opts.StimulusOptions)
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCapture(opts *CaptureOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	if opts.Batches < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--batches must be at least 1, got %d", opts.Batches))
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	next, err := opts.source(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid stimulus", err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	if st != nil {
		defer closeStore(st, logger)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = record.UUIDv7Generator{}
	}
	run, err := record.NewRun(runIDs.Generate(), opts.Label, "capture", cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create run", err)
	}

	s, err := newSession(ctx, cfg, st, run, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	result := CaptureResult{
		RunID:   run.ID,
		Config:  record.ConfigObject(cfg),
		Batches: make([]record.Batch, 0, opts.Batches),
	}
	for i := 0; i < opts.Batches; i++ {
		b, err := s.next(ctx, next())
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("batch %d failed", len(result.Batches)+1), err)
		}
		result.Batches = append(result.Batches, b)
	}

	if opts.Dump {
		if err := s.host.DumpRegisters(formatter.GetErrWriter()); err != nil {
			return err
		}
	}

	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "run %s (%d lines, timeout %d)\n", result.RunID, cfg.Lines, cfg.Timeout)
		for _, b := range result.Batches {
			writeBatchLine(w, b)
		}
		return nil
	})
}

// writeBatchLine prints one batch as a single text line.
func writeBatchLine(w io.Writer, b record.Batch) {
	samples := make([]string, len(b.Samples))
	for i, v := range b.Samples {
		samples[i] = fmt.Sprint(v)
	}
	flag := ""
	if b.TimedOut {
		flag = " timeout"
	}
	fmt.Fprintf(w, "#%-4d [%s] elapsed=%d%s\n", b.Seq, strings.Join(samples, " "), b.Elapsed, flag)
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

