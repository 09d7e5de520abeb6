package capture

// ResultQueue is the bounded FIFO between the sequencer and the host.
//
// Samples are pushed one per SAVE cycle in ascending line order and popped
// one per capdata read. There is no peek: the only way to see a sample is
// to consume it.
type ResultQueue struct {
	buf  []uint32
	head int
	size int
}

// NewResultQueue creates an empty queue holding at most capacity samples.
func NewResultQueue(capacity int) *ResultQueue {
	return &ResultQueue{buf: make([]uint32, capacity)}
}

// Capacity returns the maximum number of samples.
func (q *ResultQueue) Capacity() int {
	return len(q.buf)
}

// Len returns the number of samples waiting.
func (q *ResultQueue) Len() int {
	return q.size
}

// Empty reports whether no sample is ready to read.
func (q *ResultQueue) Empty() bool {
	return q.size == 0
}

// Full reports whether the queue cannot accept another push.
func (q *ResultQueue) Full() bool {
	return q.size == len(q.buf)
}

// Push appends a sample at the tail.
// Returns a QUEUE_FULL error when there is no room; the sample is dropped.
func (q *ResultQueue) Push(v uint32) error {
	if q.Full() {
		return NewQueueFullError(len(q.buf))
	}
	q.buf[(q.head+q.size)%len(q.buf)] = v
	q.size++
	return nil
}

// Dequeue removes and returns the oldest sample.
// Returns an EMPTY_QUEUE error rather than stale data when nothing is ready.
func (q *ResultQueue) Dequeue() (uint32, error) {
	if q.Empty() {
		return 0, NewEmptyQueueError()
	}
	v := q.buf[q.head]
	q.buf[q.head] = 0
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, nil
}

