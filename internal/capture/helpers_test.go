package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// never marks a line that does not cross threshold during a batch.
const never = -1

// levelsAt returns the line levels after elapsed RUN cycles for lines
// crossing at the given offsets.
func levelsAt(crossings []int, elapsed int) Mask {
	var m Mask
	for i, c := range crossings {
		if c != never && elapsed >= c {
			m = m.Set(i)
		}
	}
	return m
}

func newTestDevice(t *testing.T, cfg Config, opts ...Option) *Device {
	t.Helper()
	d, err := New(cfg, opts...)
	require.NoError(t, err)
	return d
}

func smallConfig(lines int, timeout uint32) Config {
	cfg := DefaultConfig(lines, 4)
	cfg.Timeout = timeout
	return cfg
}

// runToIdle starts a batch and ticks until the device is back in IDLE,
// driving lines that cross at the given RUN cycle offsets. Returns the
// number of RUN cycles observed.
func runToIdle(t *testing.T, d *Device, crossings []int) int {
	t.Helper()
	d.WriteCtrl(1)
	d.Tick(0)
	require.Equal(t, StateRun, d.State(), "start should enter RUN")

	elapsed := 0
	for i := 0; d.State() != StateIdle; i++ {
		require.Less(t, i, 1_000_000, "batch did not terminate")
		var lines Mask
		if d.State() == StateRun {
			lines = levelsAt(crossings, elapsed)
			elapsed++
		}
		d.Tick(lines)
	}
	return elapsed
}

// drain pops every queued sample.
func drain(t *testing.T, d *Device) []uint32 {
	t.Helper()
	var out []uint32
	for !d.ReadStatus().FIFOEmpty() {
		v, err := d.ReadCapdata()
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func runBatch(t *testing.T, d *Device, crossings []int) []uint32 {
	t.Helper()
	runToIdle(t, d, crossings)
	return drain(t, d)
}
