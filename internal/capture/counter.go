package capture

// Counter is the shared time base every line is measured against.
//
// It counts up by one per RUN cycle and holds at its limit instead of
// wrapping, so a batch that never sees all lines fire reports exactly
// the timeout value.
type Counter struct {
	value uint32
	limit uint32
}

// NewCounter creates a counter at zero that saturates at limit.
func NewCounter(limit uint32) *Counter {
	return &Counter{limit: limit}
}

// Value returns the current count.
func (c *Counter) Value() uint32 {
	return c.value
}

// Expired reports whether the count has reached the limit.
func (c *Counter) Expired() bool {
	return c.value >= c.limit
}

// Advance increments the count, holding at the limit.
func (c *Counter) Advance() {
	if c.value < c.limit {
		c.value++
	}
}

// Reset sets the count to zero.
func (c *Counter) Reset() {
	c.value = 0
}
