package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
	"github.com/Acathla-fr/MutCapTouch/internal/store"
)

type captureResponse struct {
	Status string        `json:"status"`
	Data   CaptureResult `json:"data"`
}

func captureJSON(t *testing.T, args ...string) CaptureResult {
	t.Helper()
	opts := &CaptureOptions{
		RootOptions: &RootOptions{Format: "json"},
		RunIDs:      record.NewFixedGenerator("run-1"),
	}
	out, _, err := execute(newCaptureCommand(opts), args...)
	require.NoError(t, err)

	var resp captureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestCapture_ExampleText(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	out, _, err := execute(NewCaptureCommand(&RootOptions{Format: "text"}), "--config", cfg, "--delays", "3,7,-,9")
	require.NoError(t, err)

	assert.Contains(t, out, "4 lines, timeout 10")
	assert.Contains(t, out, "[3 7 10 9] elapsed=10 timeout")
}

func TestCapture_ExampleJSON(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	result := captureJSON(t, "--config", cfg, "--delays", "3,7,-,9")

	want, err := record.NewBatch("run-1", 1, capture.BatchInfo{
		StartCycle: 2,
		EndCycle:   17,
		Run:        capture.RunResult{Elapsed: 10, TimedOut: true},
	}, []uint32{3, 7, 10, 9})
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, want, result.Batches[0])
	assert.Equal(t, float64(4), result.Config["lines"])
	assert.Equal(t, float64(16), result.Config["fifo_depth"])
}

func TestCapture_MultipleBatches(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	result := captureJSON(t, "--config", cfg, "--delays", "0,1,2,3", "--batches", "3")

	require.Len(t, result.Batches, 3)
	for i, b := range result.Batches {
		assert.Equal(t, int64(i+1), b.Seq)
		assert.Equal(t, []uint32{0, 1, 2, 3}, b.Samples)
		assert.False(t, b.TimedOut)
		assert.Equal(t, record.MustBatchID(b), b.ID)
	}
	assert.Less(t, result.Batches[0].EndCycle, result.Batches[1].StartCycle)
}

func TestCapture_RandomIsSeeded(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)
	args := []string{"--config", cfg, "--random", "--seed", "42", "--batches", "4"}

	first := captureJSON(t, args...)
	second := captureJSON(t, args...)

	require.Len(t, first.Batches, 4)
	for i := range first.Batches {
		assert.Equal(t, first.Batches[i].Samples, second.Batches[i].Samples)
		for _, v := range first.Batches[i].Samples {
			assert.LessOrEqual(t, v, uint32(10))
		}
	}
}

func TestCapture_Persists(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)
	dbPath := filepath.Join(t.TempDir(), "captouch.db")

	result := captureJSON(t, "--config", cfg, "--delays", "3,7,-,9", "--batches", "2", "--db", dbPath, "--label", "bench")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "bench", run.Label)
	assert.Equal(t, "capture", run.Source)
	assert.Equal(t, 4, run.Config.Lines)

	batches, err := st.ReadBatches(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Batches, batches)
}

func TestCapture_Dump(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	_, errOut, err := execute(NewCaptureCommand(&RootOptions{Format: "text"}), "--config", cfg, "--delays", "1,1,1,1", "--dump")
	require.NoError(t, err)
	assert.Contains(t, errOut, "status")
	assert.Contains(t, errOut, "interrupts")
}

func TestCapture_Errors(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing config flag", []string{"--delays", "1,2,3,4"}, "required flag"},
		{"no stimulus", []string{"--config", cfg}, "one of --delays or --random"},
		{"both stimuli", []string{"--config", cfg, "--delays", "1,2,3,4", "--random"}, "mutually exclusive"},
		{"wrong delay count", []string{"--config", cfg, "--delays", "1,2"}, "2 values for 4 lines"},
		{"bad delay", []string{"--config", cfg, "--delays", "1,x,3,4"}, "invalid stimulus"},
		{"empty random range", []string{"--config", cfg, "--random", "--min", "5", "--max", "5"}, "is empty"},
		{"zero batches", []string{"--config", cfg, "--delays", "1,2,3,4", "--batches", "0"}, "at least 1"},
		{"missing config file", []string{"--config", "/nonexistent/device.cue", "--delays", "1,2,3,4"}, "E001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(NewCaptureCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			if tt.name != "missing config flag" {
				assert.Equal(t, ExitCommandError, GetExitCode(err))
			}
		})
	}
}
