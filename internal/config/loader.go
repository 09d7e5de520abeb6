package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

//go:embed schema.cue
var schemaCUE string

// Error codes for configuration loading.
const (
	ErrCodeNotFound    = "E001" // file or directory does not exist
	ErrCodeNoFiles     = "E002" // directory holds no .cue files
	ErrCodeLoadFailed  = "E003" // CUE instance could not be loaded
	ErrCodeSchema      = "E004" // value does not satisfy the schema
	ErrCodeDecode      = "E005" // value could not be decoded
	ErrCodeInvalid     = "E006" // decoded config rejected by the device
	ErrCodeMissingNode = "E007" // no device struct declared
)

// LoadError represents an error that occurred while loading a config.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// deviceSpec mirrors #Device in schema.cue.
type deviceSpec struct {
	Lines        int    `json:"lines"`
	Columns      int    `json:"columns"`
	Timeout      uint32 `json:"timeout"`
	FIFODepth    int    `json:"fifo_depth,omitempty"`
	SyncStages   int    `json:"sync_stages"`
	ClearOnStart bool   `json:"clear_on_start"`
	CounterBits  int    `json:"counter_bits"`
}

// Load reads a config from a file or a directory of .cue files.
func Load(path string) (capture.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return capture.Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config not found: %s", path), Err: err}
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile reads and decodes a single .cue file.
func LoadFile(path string) (capture.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return capture.Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
	}
	return Parse(src, path)
}

// LoadDir loads every .cue file of the package in dir as one instance.
func LoadDir(dir string) (capture.Config, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return capture.Config{}, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Err: err}
	}
	if len(files) == 0 {
		return capture.Config{}, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return capture.Config{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return capture.Config{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Err: inst.Err}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return capture.Config{}, positioned(ErrCodeLoadFailed, err)
	}
	return decode(ctx, value)
}

// Parse decodes a config from CUE source. filename is used in positions.
func Parse(src []byte, filename string) (capture.Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return capture.Config{}, positioned(ErrCodeLoadFailed, err)
	}
	return decode(ctx, value)
}

// decode unifies value with the schema and converts the device struct.
func decode(ctx *cue.Context, value cue.Value) (capture.Config, error) {
	if !value.LookupPath(cue.ParsePath("device")).Exists() {
		return capture.Config{}, &LoadError{Code: ErrCodeMissingNode, Message: "no device declared"}
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build defect.
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return capture.Config{}, positioned(ErrCodeSchema, err)
	}

	var spec deviceSpec
	if err := unified.LookupPath(cue.ParsePath("device")).Decode(&spec); err != nil {
		return capture.Config{}, positioned(ErrCodeDecode, err)
	}

	cfg := spec.toConfig()
	if err := cfg.Validate(); err != nil {
		var ce *capture.Error
		msg := err.Error()
		if errors.As(err, &ce) {
			msg = fmt.Sprintf("%s: %s", ce.Details["field"], ce.Message)
		}
		return capture.Config{}, &LoadError{Code: ErrCodeInvalid, Message: msg, Err: err}
	}
	return cfg, nil
}

func (s deviceSpec) toConfig() capture.Config {
	return capture.Config{
		Lines:        s.Lines,
		Columns:      s.Columns,
		Timeout:      s.Timeout,
		FIFODepth:    s.FIFODepth,
		SyncStages:   s.SyncStages,
		ClearOnStart: s.ClearOnStart,
		CounterBits:  s.CounterBits,
	}
}

// positioned extracts position info from CUE errors.
func positioned(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Err: err}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
