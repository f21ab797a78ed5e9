package engine

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// UpstreamLimiter bounds the number of in-flight upstream calls across
// every session (§5): "a process-wide concurrency limiter ... prevents
// thundering herds under load."
type UpstreamLimiter struct {
	sem *semaphore.Weighted
}

func NewUpstreamLimiter(maxInFlight int) *UpstreamLimiter {
	return &UpstreamLimiter{sem: semaphore.NewWeighted(int64(maxInFlight))}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (l *UpstreamLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *UpstreamLimiter) Release() {
	l.sem.Release(1)
}
