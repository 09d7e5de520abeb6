package bench

import "math/rand"

// RandomDelays draws one crossing delay per line uniformly from [min, max).
// The same rng seed always yields the same delays.
func RandomDelays(rng *rand.Rand, lines, min, max int) []int {
	delays := make([]int, lines)
	for i := range delays {
		delays[i] = min + rng.Intn(max-min)
	}
	return delays
}
