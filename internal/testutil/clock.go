// Package testutil provides deterministic time and ID sources for
// scenario execution and golden trace comparison.
package testutil

import (
	"sync"
	"time"
)

// WallClock is a thread-safe deterministic time source for tests.
//
// Each call to Now advances the clock by a fixed step, so timestamps in
// a scenario run are reproducible and strictly increasing. The same
// scenario with the same WallClock start produces byte-identical traces.
type WallClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewWallClock creates a clock starting at start, advancing by step on
// every Now call.
func NewWallClock(start time.Time, step time.Duration) *WallClock {
	return &WallClock{now: start, step: step}
}

// Now returns the current time and advances the clock by one step.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the current time without advancing.
func (c *WallClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock for test reuse.
func (c *WallClock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
