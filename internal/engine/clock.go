package engine

import "sync/atomic"

// Clock is the monotonic logical clock for mutation ordering.
//
// Every committed mutation is stamped with a strictly increasing seq from this
// clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Replay applies mutations in the order they were accepted
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Engine's serialized intents mean only one goroutine calls
// Next() at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used when reopening a store to resume after the last logged mutation.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset moves the clock to seq. Used after a failed commit or an import.
func (c *Clock) Reset(seq int64) {
	c.seq.Store(seq)
}
