// Package resilience retries CSP exchanges that fail for transient reasons.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/andreygs/gocsp/pkg/csp"
)

// Default backoff bounds used when a policy leaves them unset.
const (
	DefaultBaseDelay = time.Millisecond
	DefaultMaxDelay  = 100 * time.Millisecond
)

// RetryPolicy defines the retry behavior for an exchange.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (not including initial call).
	MaxRetries int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	// UseJitter scales each delay by a random factor in [0.5, 1.5).
	UseJitter bool

	// Retryable decides which errors are retried. Nil means IsTransient.
	Retryable func(error) bool
}

// Retry calls fn until it succeeds, fails with a non-retryable error, ctx
// ends or the retries are used up. It returns the last error.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var lastErr error
	maxAttempts := max(policy.MaxRetries, 0) + 1

	for attempt := range maxAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if isContextError(err) || !retryable(err) {
			return err
		}

		if attempt < maxAttempts-1 {
			timer := time.NewTimer(CalculateBackoff(attempt, policy.BaseDelay, policy.MaxDelay, policy.UseJitter))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

// CalculateBackoff returns baseDelay * 2^attempt capped at maxDelay, with
// optional jitter. Non-positive bounds take the package defaults.
func CalculateBackoff(attempt int, baseDelay, maxDelay time.Duration, useJitter bool) time.Duration {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	delay := baseDelay
	for range attempt {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	if useJitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	}
	return min(delay, maxDelay)
}

// IsTransient reports whether err carries a status a peer may clear by
// itself. Only csp.NoMemory qualifies; every other status is a property of
// the message and fails again on resend.
func IsTransient(err error) bool {
	if err == nil || isContextError(err) {
		return false
	}
	var cspErr *csp.Error
	return errors.As(err, &cspErr) && cspErr.Status == csp.NoMemory
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
