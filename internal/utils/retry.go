package utils

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy is the small policy object described in §10: max attempts,
// base/max delay and a predicate on error kind, rather than hand-rolled
// sleeps scattered across callers.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retriable reports whether err should be retried. A nil Retriable
	// retries every non-nil error.
	Retriable func(err error) bool
}

// DefaultSTTRetryPolicy implements §4.1 rule 4: up to 3 total attempts,
// so at most two waits, starting at 2s and doubling (capped at 8s, and
// randomized by the backoff library's default jitter); fail fast on
// non-429 4xx.
func DefaultSTTRetryPolicy(retriable func(err error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    8 * time.Second,
		Retriable:   retriable,
	}
}

// Do runs op, retrying according to the policy. A non-retriable error is
// wrapped in backoff.Permanent so a single attempt is made.
func (p RetryPolicy) Do(ctx context.Context, op func() (string, error)) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2

	wrapped := func() (string, error) {
		out, err := op()
		if err == nil {
			return out, nil
		}
		if p.Retriable != nil && !p.Retriable(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	result, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return "", permanent.Unwrap()
		}
		return "", err
	}
	return result, nil
}
