package service

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between successive calls to Wait.
// A nil Throttle or a non-positive interval never blocks.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum interval between
// releases. The first Wait on a fresh throttle returns immediately.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous reservation, or until ctx is done. Each call reserves the next
// slot under the lock, so overlapping callers are spaced out rather than
// released together.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	now := time.Now()
	next := t.last.Add(t.interval)
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
