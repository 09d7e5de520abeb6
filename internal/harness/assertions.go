package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against a finished result and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertEventCount:
		return expectCount(a.Type, a.Count, int(result.Events))
	case AssertInterruptCount:
		return expectCount(a.Type, a.Count, int(result.Interrupts))
	case AssertStoredBatches:
		return expectCount(a.Type, a.Count, len(result.Batches))
	case AssertTraceCount:
		return expectCount(fmt.Sprintf("%s(%s)", a.Type, a.Kind), a.Count, result.Count(a.Kind))
	case AssertElapsed:
		return assertElapsed(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func expectCount(typ string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

// assertElapsed finds the a.Batch-th finished batch (aborted ones
// included) in the trace and checks its counter value.
func assertElapsed(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Trace {
		if e.Type != KindBatch {
			continue
		}
		if n == a.Batch {
			if e.Elapsed == a.Elapsed {
				return nil
			}
			return &AssertionError{
				Type:     AssertElapsed,
				Expected: fmt.Sprintf("batch %d elapsed %d", a.Batch, a.Elapsed),
				Actual:   fmt.Sprintf("elapsed %d", e.Elapsed),
			}
		}
		n++
	}
	return &AssertionError{
		Type:     AssertElapsed,
		Expected: fmt.Sprintf("batch %d", a.Batch),
		Actual:   fmt.Sprintf("only %d batches finished", n),
	}
}
