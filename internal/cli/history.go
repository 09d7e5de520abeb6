package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
	"github.com/Acathla-fr/MutCapTouch/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// RunHistory is a run with its stored batches.
type RunHistory struct {
	Run     record.Run     `json:"run"`
	Config  record.Object  `json:"config"`
	Batches []record.Batch `json:"batches"`
}

// RunListEntry is one row of the run listing.
type RunListEntry struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Source   string `json:"source"`
	Batches  int    `json:"batches"`
	TimedOut int    `json:"timed_out"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored capture runs",
		Long: `List the runs stored in a capture database, or print the batches of
one run.

Examples:
  captouch history --db ./captouch.db
  captouch history --db ./captouch.db 0192f3c4-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runHistoryList(opts, cmd)
			}
			return runHistoryShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openExistingStore opens a database that must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	return openStore(path)
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]RunListEntry, len(runs))
	for i, r := range runs {
		entries[i] = RunListEntry{
			ID:       r.ID,
			Label:    r.Label,
			Source:   r.Source,
			Batches:  r.Batches,
			TimedOut: r.TimedOut,
		}
	}

	return formatter.Success(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No runs found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSOURCE\tLABEL\tBATCHES\tTIMED OUT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.ID, e.Source, e.Label, e.Batches, e.TimedOut)
		}
		return tw.Flush()
	})
}

func runHistoryShow(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		if outErr := formatter.Error("E_NOT_FOUND", fmt.Sprintf("run not found: %s", runID), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	batches, err := st.ReadBatches(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read batches", err)
	}

	h := RunHistory{
		Run:     run,
		Config:  record.ConfigObject(run.Config),
		Batches: batches,
	}
	return formatter.Success(h, func(w io.Writer) error {
		fmt.Fprintf(w, "run %s (%s", run.ID, run.Source)
		if run.Label != "" {
			fmt.Fprintf(w, ", %q", run.Label)
		}
		fmt.Fprintf(w, ") %d lines, timeout %d, config %s\n", run.Config.Lines, run.Config.Timeout, run.ConfigHash)
		for _, b := range batches {
			writeBatchLine(w, b)
		}
		return nil
	})
}
