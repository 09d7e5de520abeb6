package bench

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

// Never is the crossing delay of a line that stays below threshold.
const Never = -1

// Network models the RC sensing network behind each line.
//
// While the core drives a line it follows the driven level and its charge
// is reset. Once released, the line reads high from the cycle its charge
// time reaches the configured delay.
type Network struct {
	delays  []int
	charged []int
}

// NewNetwork creates a network for the given number of lines with every
// line set to Never.
func NewNetwork(lines int) *Network {
	n := &Network{
		delays:  make([]int, lines),
		charged: make([]int, lines),
	}
	for i := range n.delays {
		n.delays[i] = Never
	}
	return n
}

// SetDelays sets the per-line crossing delays in cycles after release.
func (n *Network) SetDelays(delays []int) error {
	if len(delays) != len(n.delays) {
		return fmt.Errorf("set delays: got %d values for %d lines", len(delays), len(n.delays))
	}
	for i, d := range delays {
		if d < 0 && d != Never {
			return fmt.Errorf("set delays: line %d: negative delay %d", i, d)
		}
	}
	copy(n.delays, delays)
	return nil
}

// Delays returns a copy of the current delays.
func (n *Network) Delays() []int {
	out := make([]int, len(n.delays))
	copy(out, n.delays)
	return out
}

// Sample returns the line levels seen at the pads for the coming edge and
// advances each released line's charge by one cycle.
func (n *Network) Sample(out capture.Outputs) capture.Mask {
	var levels capture.Mask
	for a, d := range n.delays {
		if out.LinesOE.Has(a) {
			n.charged[a] = 0
			if out.LinesO.Has(a) {
				levels = levels.Set(a)
			}
			continue
		}
		if d != Never && n.charged[a] >= d {
			levels = levels.Set(a)
		}
		n.charged[a]++
	}
	return levels
}

// ParseDelays parses a comma separated delay list such as "3,7,-,9".
// "-" (or "never") marks a line that does not cross.
func ParseDelays(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	delays := make([]int, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "-" || strings.EqualFold(f, "never") {
			delays = append(delays, Never)
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("delay %d: %q is not a cycle count", i, f)
		}
		delays = append(delays, d)
	}
	return delays, nil
}

// FormatDelays is the inverse of ParseDelays.
func FormatDelays(delays []int) string {
	parts := make([]string, len(delays))
	for i, d := range delays {
		if d == Never {
			parts[i] = "-"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}
	return strings.Join(parts, ",")
}
