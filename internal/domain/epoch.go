package domain

import (
	"sync"
	"time"
)

// EpochClock issues strictly increasing millisecond epochs. Wall clock
// reads are clamped to max(now, last+1) so rapid successive calls and
// clock skew never produce a duplicate or decreasing epoch.
type EpochClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewEpochClock() *EpochClock {
	return &EpochClock{now: time.Now}
}

func (c *EpochClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	epoch := c.now().UnixMilli()
	if epoch <= c.last {
		epoch = c.last + 1
	}
	c.last = epoch
	return epoch
}
