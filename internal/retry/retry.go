// Package retry provides a reusable retry policy for provider calls.
// Adapters hold a Policy instead of hand-rolling backoff loops at each
// call site.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried: attempt count, an
// exponential backoff schedule, and a per-attempt timeout.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// Multiplier grows the delay after each failed attempt.
	Multiplier float64

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// AttemptTimeout bounds each individual attempt. Zero disables
	// the per-attempt bound.
	AttemptTimeout time.Duration
}

// DefaultPolicy matches the provider adapters' needs: three attempts
// with a short exponential backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     5 * time.Second,
	}
}

// Do runs op until it succeeds, attempts are exhausted, or ctx is
// cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * p.Multiplier)
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		lastErr = op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
