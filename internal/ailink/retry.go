// Package ailink hosts the AI-provider plumbing shared by every judge and
// adapter call: a uniform retry policy and a JSON repair pipeline for the
// loosely structured output providers return.
package ailink

import (
	"context"
	"time"

	"github.com/aeolens/aeolens/internal/ailink/driver"
)

// RetryPolicy is an explicit retry value applied uniformly to provider
// calls. Zero value means a single attempt with no backoff.
type RetryPolicy struct {
	// MaxAttempts bounds total attempts, including the first.
	MaxAttempts int
	// Backoff returns the sleep before attempt n (1-based, first retry is n=1).
	Backoff func(attempt int) time.Duration
	// NonRetryable short-circuits the loop when it returns true for an error.
	NonRetryable func(error) bool
}

// DefaultRetryPolicy retries transient provider failures twice with linear
// backoff. Refusals, content filters, auth, and rate-limit errors stop
// immediately.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		Backoff:      LinearBackoff(time.Second),
		NonRetryable: func(err error) bool { return !driver.IsRetryable(err) },
	}
}

// LinearBackoff returns a backoff function sleeping step, 2*step, 3*step, ...
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return time.Duration(attempt) * step
	}
}

// Do runs op until it succeeds, the policy is exhausted, the error is
// non-retryable, or the context ends. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.NonRetryable != nil && p.NonRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt + 1)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
	}
	return lastErr
}
