package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// canonicalEvent converts a trace event to a canonical JSON object with
// exactly the fields its kind defines.
func canonicalEvent(e TraceEvent) record.Object {
	obj := record.Object{
		"type":  e.Type,
		"cycle": e.Cycle,
	}
	switch e.Type {
	case KindTransition:
		obj["from"] = e.From
		obj["to"] = e.To
	case KindPush:
		obj["line"] = e.Line
		obj["value"] = e.Value
	case KindBatch:
		obj["index"] = e.Index
		obj["start_cycle"] = e.StartCycle
		obj["elapsed"] = e.Elapsed
		obj["timed_out"] = e.TimedOut
		obj["aborted"] = e.Aborted
	}
	return obj
}

// Snapshot renders a result trace as canonical JSON lines: a header with
// the scenario name and run ID, then one line per event.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer

	header, err := record.MarshalCanonical(record.Object{
		"scenario_name": result.Name,
		"run_id":        result.RunID,
	})
	if err != nil {
		return nil, err
	}
	buf.Write(header)
	buf.WriteByte('\n')

	for i, e := range result.Trace {
		line, err := record.MarshalCanonical(canonicalEvent(e))
		if err != nil {
			return nil, fmt.Errorf("trace[%d]: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
