package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	StimulusOptions
	Config   string
	Database string
	Label    string
	Batches  int           // stop after this many batches (0 = until interrupted)
	Interval time.Duration // pause between batches

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs record.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the free-running capture loop",
		Long: `Start a free-running capture loop on a simulated device.

Every batch is drained through capdata and stored in the SQLite database
(created if it doesn't exist). The loop runs until interrupted, or until
--batches batches have been captured.

Example:
  captouch run --config ./device.cue --db ./captouch.db --random
  captouch run --config ./board --db /tmp/test.db --delays 3,7,-,9 --batches 100 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "device config file or directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "run label")
	cmd.Flags().IntVar(&opts.Batches, "batches", 0, "stop after this many batches (0 = until interrupted)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "pause between batches")
	addStimulusFlags(cmd, &opts.StimulusOptions)
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoop(opts *RunOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Batches < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--batches must not be negative, got %d", opts.Batches))
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	next, err := opts.source(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid stimulus", err)
	}

	logger.Info("opening database", "path", opts.Database)
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = record.UUIDv7Generator{}
	}
	run, err := record.NewRun(runIDs.Generate(), opts.Label, "run", cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create run", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	s, err := newSession(ctx, cfg, st, run, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	logger.Info("capture loop starting", "run", run.ID, "lines", cfg.Lines, "timeout", cfg.Timeout)
	fmt.Fprintf(cmd.OutOrStdout(), "Capture loop started (run %s).\n", run.ID)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	progress := func(int) {}
	if isTerminal(cmd.OutOrStdout()) {
		progress = func(n int) {
			fmt.Fprintf(cmd.OutOrStdout(), "\r%d batches", n)
		}
		defer fmt.Fprintln(cmd.OutOrStdout())
	}

	count, err := loop(ctx, s, next, opts.Batches, opts.Interval, progress)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "capture loop error", err)
	}

	logger.Info("capture loop stopped", "run", run.ID, "batches", count)
	fmt.Fprintf(cmd.OutOrStdout(), "Captured %d batches.\n", count)
	return nil
}

// loop captures batches until ctx is done or limit batches were taken.
// progress is called with the running count after every batch.
func loop(ctx context.Context, s *session, next func() []int, limit int, interval time.Duration, progress func(int)) (int, error) {
	count := 0
	for limit == 0 || count < limit {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := s.next(ctx, next()); err != nil {
			if ctx.Err() != nil {
				// An interrupted write surfaces as a driver error.
				return count, ctx.Err()
			}
			return count, err
		}
		count++
		progress(count)

		if interval > 0 {
			t := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return count, ctx.Err()
			case <-t.C:
			}
		}
	}
	return count, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
