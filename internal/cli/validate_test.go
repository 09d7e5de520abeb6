package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/config"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

func TestValidate_ValidFile(t *testing.T) {
	cfg := writeConfig(t, exampleConfig)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Config valid")
	assert.Contains(t, out, "fifo_depth:     16")
	assert.Contains(t, out, "clear_on_start: true")
}

func TestValidate_ValidDirectoryJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device.cue"), []byte(exampleConfig), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "board.cue"), []byte("package captouch\n\ndevice: sync_stages: 2\n"), 0644))

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, float64(2), resp.Data.Config["sync_stages"])

	want, err := record.ConfigHash(capture.Config{
		Lines:        4,
		Columns:      4,
		Timeout:      10,
		SyncStages:   2,
		ClearOnStart: true,
		CounterBits:  32,
	})
	require.NoError(t, err)
	assert.Equal(t, want, resp.Data.ConfigHash)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code string
	}{
		{"missing path", func(t *testing.T) string { return "/nonexistent/device.cue" }, config.ErrCodeNotFound},
		{"empty directory", func(t *testing.T) string { return t.TempDir() }, config.ErrCodeNoFiles},
		{"schema violation", func(t *testing.T) string { return writeConfig(t, "device: { lines: 0 }\n") }, config.ErrCodeSchema},
		{"no device", func(t *testing.T) string { return writeConfig(t, "board: { lines: 4 }\n") }, config.ErrCodeMissingNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), tt.path(t))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestValidate_ErrorJSON(t *testing.T) {
	cfg := writeConfig(t, "device: { lines: 4, columns: 1, fifo_depth: 2 }\n")

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), cfg)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, config.ErrCodeInvalid, resp.Error.Code)
}
