package lobby

import (
	"context"
	"sync/atomic"
	"time"
)

// Countdown is one arming of the turn timer. Each arming gets its own
// cancellation flag, so a flag set for an earlier round can never cancel a
// later one.
type Countdown struct {
	Round    int
	length   time.Duration
	tick     time.Duration
	cancel   atomic.Bool
	finished chan struct{}
}

func NewCountdown(round int, length, tick time.Duration) *Countdown {
	if tick <= 0 || tick > length {
		tick = length
	}
	return &Countdown{
		Round:    round,
		length:   length,
		tick:     tick,
		finished: make(chan struct{}),
	}
}

// Cancel requests that the countdown stop without firing. It takes effect
// within one tick.
func (c *Countdown) Cancel() { c.cancel.Store(true) }

// Done is closed when Run returns.
func (c *Countdown) Done() <-chan struct{} { return c.finished }

// Run sleeps in tick-sized steps, consuming the cancellation flag after each
// step. fire is called at most once, and only if the full length elapsed
// without cancellation. It reports whether fire was called.
func (c *Countdown) Run(ctx context.Context, fire func()) bool {
	defer close(c.finished)

	for remaining := c.length; remaining > 0; {
		step := min(c.tick, remaining)
		t := time.NewTimer(step)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		remaining -= step

		if c.cancel.CompareAndSwap(true, false) {
			return false
		}
	}

	fire()
	return true
}
