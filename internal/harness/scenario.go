package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Acathla-fr/MutCapTouch/internal/bench"
	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

// Scenario defines one capture test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "scenario-<name>".
	RunID string `yaml:"run_id,omitempty"`

	// Device is the device configuration.
	Device DeviceSpec `yaml:"device"`

	// Batches are run in order on the same device.
	Batches []BatchStep `yaml:"batches"`

	// Assertions validate the whole run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DeviceSpec is the device section of a scenario. Unset fields take the
// capture.DefaultConfig values.
type DeviceSpec struct {
	Lines        int     `yaml:"lines"`
	Columns      int     `yaml:"columns"`
	Timeout      *uint32 `yaml:"timeout,omitempty"`
	FIFODepth    int     `yaml:"fifo_depth,omitempty"`
	SyncStages   int     `yaml:"sync_stages,omitempty"`
	ClearOnStart *bool   `yaml:"clear_on_start,omitempty"`
	CounterBits  int     `yaml:"counter_bits,omitempty"`
}

// Config resolves the device section to a device configuration.
func (d DeviceSpec) Config() capture.Config {
	cfg := capture.DefaultConfig(d.Lines, d.Columns)
	if d.Timeout != nil {
		cfg.Timeout = *d.Timeout
	}
	cfg.FIFODepth = d.FIFODepth
	cfg.SyncStages = d.SyncStages
	if d.ClearOnStart != nil {
		cfg.ClearOnStart = *d.ClearOnStart
	}
	if d.CounterBits != 0 {
		cfg.CounterBits = d.CounterBits
	}
	return cfg
}

// BatchStep is one batch of a scenario.
type BatchStep struct {
	// Delays holds one crossing delay per line, in cycles after release.
	// null means the line never crosses.
	Delays []*int `yaml:"delays"`

	// AbortAfter, if set, aborts the batch after that many RUN cycles.
	AbortAfter *int `yaml:"abort_after,omitempty"`

	// Expect checks the drained batch. Ignored for aborted batches.
	Expect *BatchExpect `yaml:"expect,omitempty"`
}

// NetworkDelays converts the step delays for bench.Network.
func (b BatchStep) NetworkDelays() []int {
	out := make([]int, len(b.Delays))
	for i, d := range b.Delays {
		if d == nil {
			out[i] = bench.Never
		} else {
			out[i] = *d
		}
	}
	return out
}

// BatchExpect specifies the expected outcome of a batch.
type BatchExpect struct {
	// Samples is the exact expected capdata sequence.
	Samples []uint32 `yaml:"samples,omitempty"`

	// TimedOut, if set, checks whether RUN ended on timeout.
	TimedOut *bool `yaml:"timed_out,omitempty"`
}

// Assertion validates the whole run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": queue events raised (count)
	// - "interrupt_count": ISR invocations (count)
	// - "trace_count": trace events of a kind (kind, count)
	// - "elapsed": counter value at the end of RUN (batch, elapsed)
	// - "stored_batches": batches read back from the store (count)
	Type string `yaml:"type"`

	Count   int    `yaml:"count,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Batch   int    `yaml:"batch,omitempty"`
	Elapsed uint32 `yaml:"elapsed,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount     = "event_count"
	AssertInterruptCount = "interrupt_count"
	AssertTraceCount     = "trace_count"
	AssertElapsed        = "elapsed"
	AssertStoredBatches  = "stored_batches"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, ordered by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := s.Device.Config().Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if len(s.Batches) == 0 {
		return fmt.Errorf("batches list is required and must be non-empty")
	}

	for i, b := range s.Batches {
		if len(b.Delays) != s.Device.Lines {
			return fmt.Errorf("batches[%d]: %d delays for %d lines", i, len(b.Delays), s.Device.Lines)
		}
		for j, d := range b.Delays {
			if d != nil && *d < 0 {
				return fmt.Errorf("batches[%d].delays[%d]: negative delay", i, j)
			}
		}
		if b.AbortAfter != nil && *b.AbortAfter < 0 {
			return fmt.Errorf("batches[%d]: abort_after must be non-negative", i)
		}
		if b.Expect != nil && b.Expect.Samples != nil && len(b.Expect.Samples) != s.Device.Lines {
			return fmt.Errorf("batches[%d].expect: %d samples for %d lines", i, len(b.Expect.Samples), s.Device.Lines)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, len(s.Batches)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, batches int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventCount, AssertInterruptCount, AssertStoredBatches:
	case AssertTraceCount:
		if !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown trace kind %q", index, a.Kind)
		}
	case AssertElapsed:
		if a.Batch < 0 || a.Batch >= batches {
			return fmt.Errorf("assertions[%d]: batch %d out of range", index, a.Batch)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}
