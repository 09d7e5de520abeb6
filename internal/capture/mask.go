package capture

import (
	"fmt"
	"math/bits"
)

// MaxLines is the widest line (or column) vector a Mask can hold.
const MaxLines = 64

// Mask is a bit vector with one bit per line or column, bit 0 = index 0.
type Mask uint64

// FullMask returns a mask with the low n bits set.
func FullMask(n int) Mask {
	if n >= MaxLines {
		return ^Mask(0)
	}
	if n <= 0 {
		return 0
	}
	return Mask(1)<<uint(n) - 1
}

// MaskOf builds a mask from a list of indices.
func MaskOf(indices ...int) Mask {
	var m Mask
	for _, i := range indices {
		m = m.Set(i)
	}
	return m
}

// Has reports whether bit i is set.
func (m Mask) Has(i int) bool {
	return m&(Mask(1)<<uint(i)) != 0
}

// Set returns m with bit i set.
func (m Mask) Set(i int) Mask {
	return m | Mask(1)<<uint(i)
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// Bits renders the low n bits, most significant line first.
func (m Mask) Bits(n int) string {
	return fmt.Sprintf("%0*b", n, uint64(m&FullMask(n)))
}
