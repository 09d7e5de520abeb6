package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func u32p(v uint32) *uint32 { return &v }

func TestRun_TimeoutExample(t *testing.T) {
	scenario := &Scenario{
		Name:        "example",
		Description: "four lines, one never crosses",
		Device:      DeviceSpec{Lines: 4, Columns: 4, Timeout: u32p(10)},
		Batches: []BatchStep{{
			Delays: []*int{intp(3), intp(7), nil, intp(9)},
			Expect: &BatchExpect{Samples: []uint32{3, 7, 10, 9}, TimedOut: boolp(true)},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "scenario-example", result.RunID)
	assert.Equal(t, uint64(1), result.Events)
	assert.Equal(t, uint64(1), result.Interrupts)

	require.Len(t, result.Batches, 1)
	b := result.Batches[0]
	assert.Equal(t, []uint32{3, 7, 10, 9}, b.Samples)
	assert.Equal(t, int64(1), b.Seq)
	assert.Equal(t, record.MustBatchID(b), b.ID)
}

func TestRun_ReportsMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		RunID:       "run-fixed",
		Device:      DeviceSpec{Lines: 2, Timeout: u32p(10)},
		Batches: []BatchStep{{
			Delays: []*int{intp(1), intp(2)},
			Expect: &BatchExpect{Samples: []uint32{2, 1}, TimedOut: boolp(true)},
		}},
		Assertions: []Assertion{{Type: AssertEventCount, Count: 2}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "run-fixed", result.RunID)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "samples = [1 2], expected [2 1]")
	assert.Contains(t, result.Errors[1], "timed_out = false, expected true")
	assert.Contains(t, result.Errors[2], "Assertion failed: event_count")
}

func TestRun_AbortTooLateIsReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "late_abort",
		Description: "batch ends before the abort",
		Device:      DeviceSpec{Lines: 1, Timeout: u32p(10)},
		Batches: []BatchStep{
			{Delays: []*int{intp(0)}, AbortAfter: intp(3)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "left RUN before abort")
	assert.Empty(t, result.Batches)
}

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunAll(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	results, err := RunAll(context.Background(), scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name, "results keep input order")
		assert.True(t, r.Pass, "%s: %v", r.Name, r.Errors)

		// Independent devices give the same trace as a serial run.
		serial, err := Run(scenarios[i])
		require.NoError(t, err)
		assert.Equal(t, serial.Trace, r.Trace)
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	scenario := &Scenario{
		Name:        "long",
		Description: "never finishes in time",
		Device:      DeviceSpec{Lines: 1, Timeout: u32p(1 << 30)},
		Batches:     []BatchStep{{Delays: []*int{nil}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, []*Scenario{scenario}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Count(t *testing.T) {
	r := NewResult("x")
	r.Trace = []TraceEvent{{Type: KindPush}, {Type: KindEvent}, {Type: KindPush}}
	assert.Equal(t, 2, r.Count(KindPush))
	assert.Equal(t, 0, r.Count(KindBatch))
}
