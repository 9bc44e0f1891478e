package services

import (
	"context"
	"sync"
	"time"
)

// DefaultRequestInterval is the minimum spacing between remote calls
const DefaultRequestInterval = 600 * time.Millisecond

// Throttle enforces a minimum interval between consecutive remote calls
type Throttle struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewThrottle creates a throttle; a non-positive interval disables waiting
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// Wait blocks until the interval since the previous call has elapsed or ctx
// is done
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if wait := t.interval - t.now().Sub(t.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = t.now()
	return nil
}

// Interval returns the configured spacing
func (t *Throttle) Interval() time.Duration {
	if t == nil {
		return 0
	}
	return t.interval
}
