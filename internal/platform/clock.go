package platform

import "sync/atomic"

// Sequencer hands out logical sequence numbers.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the platform's monotonic logical clock. Session creation and
// query log records are stamped with Next(); nothing is ordered by wall
// time.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start, typically the
// store's last recorded seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
