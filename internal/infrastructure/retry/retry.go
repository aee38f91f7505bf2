// Package retry provides a bounded retry-with-backoff combinator. Conflict
// handling at the numbering and journal boundaries goes through it instead of
// ad-hoc catch-and-retry loops.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted wraps the last error once the attempt budget is spent.
var ErrAttemptsExhausted = errors.New("retry: attempts exhausted")

// Policy controls how Do retries.
type Policy struct {
	// MaxAttempts is the total number of attempts, first call included
	MaxAttempts int
	// BaseDelay is the delay before the second attempt
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth
	MaxDelay time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used for store-level uniqueness conflicts.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Retryable:   retryable,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or the context is cancelled. The delay doubles between
// attempts: BaseDelay * 2^(attempt-1), capped at MaxDelay.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if policy.Retryable != nil && !policy.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delayFor(policy, attempt)); err != nil {
			return err
		}
	}
	return errors.Join(ErrAttemptsExhausted, lastErr)
}

func delayFor(policy Policy, attempt int) time.Duration {
	delay := policy.BaseDelay * time.Duration(1<<(attempt-1))
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
