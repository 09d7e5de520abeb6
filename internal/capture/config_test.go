package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(4, 4)

	assert.Equal(t, uint32(2985984), cfg.Timeout)
	assert.Equal(t, 16, cfg.QueueDepth())
	assert.True(t, cfg.ClearOnStart)
	require.NoError(t, cfg.Validate())
}

func TestConfig_QueueDepth(t *testing.T) {
	cfg := DefaultConfig(3, 0)
	assert.Equal(t, 3, cfg.QueueDepth())

	cfg.FIFODepth = 9
	assert.Equal(t, 9, cfg.QueueDepth())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no lines", func(c *Config) { c.Lines = 0 }, "lines"},
		{"too many lines", func(c *Config) { c.Lines = 65 }, "lines"},
		{"negative columns", func(c *Config) { c.Columns = -1 }, "columns"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"timeout exceeds counter", func(c *Config) { c.CounterBits = 8; c.Timeout = 256 }, "timeout"},
		{"bad counter width", func(c *Config) { c.CounterBits = 40 }, "counter_bits"},
		{"odd counter width", func(c *Config) { c.CounterBits = 5; c.Timeout = 10 }, "counter_bits"},
		{"non-byte counter width", func(c *Config) { c.CounterBits = 12; c.Timeout = 10 }, "counter_bits"},
		{"shallow fifo", func(c *Config) { c.FIFODepth = 2 }, "fifo_depth"},
		{"negative fifo", func(c *Config) { c.FIFODepth = -1 }, "fifo_depth"},
		{"negative sync stages", func(c *Config) { c.SyncStages = -1 }, "sync_stages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(4, 4)
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsInvalidConfig(err))

			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Details["field"])
		})
	}
}

func TestConfig_TimeoutFitsCounter(t *testing.T) {
	cfg := DefaultConfig(1, 0)
	cfg.CounterBits = 8
	cfg.Timeout = 255

	assert.NoError(t, cfg.Validate())
}

func TestMask(t *testing.T) {
	assert.Equal(t, Mask(0xF), FullMask(4))
	assert.Equal(t, ^Mask(0), FullMask(64))
	assert.Equal(t, Mask(0), FullMask(0))
	assert.Equal(t, 3, MaskOf(0, 2, 5).Count())
	assert.True(t, MaskOf(3).Has(3))
	assert.False(t, MaskOf(3).Has(2))
	assert.Equal(t, "0101", MaskOf(0, 2).Bits(4))
}

func TestError_Message(t *testing.T) {
	err := NewConfigError("lines", "must be positive")
	assert.Equal(t, "INVALID_CONFIG: must be positive (field=lines)", err.Error())
	assert.Equal(t, "EMPTY_QUEUE: result queue has no sample ready", NewEmptyQueueError().Error())
}

func TestConfig_CounterWidths(t *testing.T) {
	for _, bits := range append([]int{0}, CounterWidths...) {
		cfg := DefaultConfig(4, 4)
		cfg.CounterBits = bits
		cfg.Timeout = 255
		assert.NoError(t, cfg.Validate(), "counter_bits=%d", bits)
	}
}
