package store

import (
	"encoding/json"
	"fmt"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
	"github.com/Acathla-fr/MutCapTouch/internal/record"
)

// configJSON mirrors record.ConfigObject for decoding.
type configJSON struct {
	Lines        int    `json:"lines"`
	Columns      int    `json:"columns"`
	Timeout      uint32 `json:"timeout"`
	FIFODepth    int    `json:"fifo_depth"`
	SyncStages   int    `json:"sync_stages"`
	ClearOnStart bool   `json:"clear_on_start"`
	CounterBits  int    `json:"counter_bits"`
}

// marshalConfig converts a configuration to canonical JSON TEXT for storage.
func marshalConfig(cfg capture.Config) (string, error) {
	data, err := record.MarshalCanonical(record.ConfigObject(cfg))
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// unmarshalConfig parses a stored configuration.
func unmarshalConfig(data string) (capture.Config, error) {
	var c configJSON
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return capture.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return capture.Config{
		Lines:        c.Lines,
		Columns:      c.Columns,
		Timeout:      c.Timeout,
		FIFODepth:    c.FIFODepth,
		SyncStages:   c.SyncStages,
		ClearOnStart: c.ClearOnStart,
		CounterBits:  c.CounterBits,
	}, nil
}
