package deck

import "sync/atomic"

// Clock is the deck's logical tick counter. Every Draw and Play advances it
// by one; redraw cooldowns are measured in ticks.
//
// Ticks are never wall-clock time, so replaying the same calls with the same
// random seed reproduces the same draws.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a clock at tick 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.tick.Store(start)
	return c
}

// Next advances the clock and returns the new tick.
func (c *Clock) Next() int64 {
	return c.tick.Add(1)
}

// Current returns the tick without advancing.
func (c *Clock) Current() int64 {
	return c.tick.Load()
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.tick.Store(0)
}
