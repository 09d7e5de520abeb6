package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Acathla-fr/MutCapTouch/internal/config"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// ErrCodeGeneric is reported for errors that carry no load error code.
const ErrCodeGeneric = "E000"

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool          `json:"valid"`
	Config     record.Object `json:"config,omitempty"`
	ConfigHash string        `json:"config_hash,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a device config",
		Long: `Validate a CUE device config (a file or a directory of .cue files)
against the device schema and print the resolved parameters.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	formatter.VerboseLog("loading %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("validation failed [%s]", code), err)
	}

	hash, err := record.ConfigHash(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash config", err)
	}

	result := ValidationResult{
		Valid:      true,
		Config:     record.ConfigObject(cfg),
		ConfigHash: hash,
	}
	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintln(w, "✓ Config valid")
		fmt.Fprintf(w, "  lines:          %d\n", cfg.Lines)
		fmt.Fprintf(w, "  columns:        %d\n", cfg.Columns)
		fmt.Fprintf(w, "  timeout:        %d\n", cfg.Timeout)
		fmt.Fprintf(w, "  fifo_depth:     %d\n", cfg.QueueDepth())
		fmt.Fprintf(w, "  sync_stages:    %d\n", cfg.SyncStages)
		fmt.Fprintf(w, "  clear_on_start: %t\n", cfg.ClearOnStart)
		fmt.Fprintf(w, "  counter_bits:   %d\n", cfg.CounterBits)
		fmt.Fprintf(w, "  hash:           %s\n", hash)
		return nil
	})
}
