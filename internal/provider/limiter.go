package provider

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds concurrent outbound calls to one external provider.
// It is the only state shared across jobs; Acquire/Release bracket the
// provider call itself, nothing is held longer.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter admitting at most n concurrent calls.
// n <= 0 means unbounded, useful for tests.
func NewLimiter(n int64) *Limiter {
	if n <= 0 {
		return &Limiter{}
	}
	return &Limiter{sem: semaphore.NewWeighted(n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.sem == nil {
		return ctx.Err()
	}
	return l.sem.Acquire(ctx, 1)
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	if l == nil || l.sem == nil {
		return
	}
	l.sem.Release(1)
}

// Do runs fn under admission control.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}
