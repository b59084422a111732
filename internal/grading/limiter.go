package grading

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds how many model invocations run simultaneously across the
// whole process. It is constructed once at startup and injected into the
// orchestrator; callers acquire immediately before an invocation and release
// immediately after. An optional pacing delay after each acquisition smooths
// burst load against the provider's rate limits.
type Limiter struct {
	sem   *semaphore.Weighted
	delay time.Duration
}

// NewLimiter creates a limiter admitting at most max concurrent invocations.
func NewLimiter(max int64, delay time.Duration) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(max),
		delay: delay,
	}
}

// Acquire blocks until a slot is free, then applies the pacing delay. The
// slot is released on context cancellation during the delay.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	if l.delay > 0 {
		select {
		case <-ctx.Done():
			l.sem.Release(1)
			return ctx.Err()
		case <-time.After(l.delay):
		}
	}

	return nil
}

// Release frees a slot acquired with Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
