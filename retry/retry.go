// Package retry runs operations under an explicit retry policy.
package retry

import (
	"context"
	"time"

	"github.com/fwojciec/research"
)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// Policy describes how an operation is retried. The number of attempts is
// len(Delays)+1; Delays[i] is the wait before attempt i+2.
type Policy struct {
	Delays []time.Duration

	// Retryable reports whether an error is worth another attempt.
	// Defaults to research.IsTransient.
	Retryable func(error) bool

	// Logf, if set, is called before each retry.
	Logf LogFunc
}

// DefaultDelays returns the backoff delays for provider retries: 500ms, 1s.
func DefaultDelays() []time.Duration {
	return []time.Duration{500 * time.Millisecond, 1 * time.Second}
}

// DefaultPolicy retries transient errors at most twice.
func DefaultPolicy() Policy {
	return Policy{Delays: DefaultDelays(), Retryable: research.IsTransient}
}

// MaxAttempts returns the total number of attempts the policy allows.
func (p Policy) MaxAttempts() int {
	return len(p.Delays) + 1
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return research.IsTransient(err)
	}
	return p.Retryable(err)
}

// Do calls fn until it succeeds, returns a non-retryable error or the
// policy runs out of attempts. Context cancellation stops retrying and
// returns the context error.
func Do[T any](ctx context.Context, p Policy, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		// Don't retry permanent failures or after the last attempt
		if !p.retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		if p.Logf != nil {
			p.Logf("retry %s (attempt %d): %v", name, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.Delays[attempt]):
		}
	}

	return zero, lastErr
}
