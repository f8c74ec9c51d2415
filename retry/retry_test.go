package retry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/research"
	"github.com/fwojciec/research/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("returns result on first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := retry.Do(context.Background(), retry.Policy{Delays: []time.Duration{0, 0}}, "op", func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := retry.Do(context.Background(), retry.Policy{Delays: []time.Duration{0, 0}}, "op", func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, research.Errorf(research.ETRANSIENT, "HTTP 503")
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts with last error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := retry.Do(context.Background(), retry.Policy{Delays: []time.Duration{0, 0}}, "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, research.Errorf(research.ETRANSIENT, "attempt %d", calls)
		})

		assert.Equal(t, 3, calls)
		assert.Equal(t, "attempt 3", research.ErrorMessage(err))
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := retry.Do(context.Background(), retry.Policy{Delays: []time.Duration{0, 0}}, "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, research.Errorf(research.ENOTFOUND, "HTTP 404")
		})

		assert.Equal(t, 1, calls)
		assert.Equal(t, research.ENOTFOUND, research.ErrorCode(err))
	})

	t.Run("uses custom retryable predicate", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("flaky")
		calls := 0
		policy := retry.Policy{
			Delays:    []time.Duration{0},
			Retryable: func(err error) bool { return errors.Is(err, sentinel) },
		}

		_, err := retry.Do(context.Background(), policy, "op", func(ctx context.Context) (int, error) {
			calls++
			return 0, fmt.Errorf("wrapped: %w", sentinel)
		})

		assert.Equal(t, 2, calls)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("stops waiting when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		policy := retry.Policy{Delays: []time.Duration{time.Hour}}

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := retry.Do(ctx, policy, "op", func(ctx context.Context) (int, error) {
			return 0, research.Errorf(research.ETRANSIENT, "timeout")
		})

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("logs each retry", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var logs []string
		policy := retry.Policy{
			Delays: []time.Duration{0, 0},
			Logf: func(format string, args ...any) {
				mu.Lock()
				defer mu.Unlock()
				logs = append(logs, fmt.Sprintf(format, args...))
			},
		}

		_, _ = retry.Do(context.Background(), policy, "https://a.com", func(ctx context.Context) (int, error) {
			return 0, research.Errorf(research.ETRANSIENT, "HTTP 502")
		})

		require.Len(t, logs, 2)
		assert.Contains(t, logs[0], "https://a.com")
		assert.Contains(t, logs[0], "attempt 2")
	})
}

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	p := retry.DefaultPolicy()

	assert.Equal(t, 3, p.MaxAttempts())
	assert.True(t, p.Retryable(research.Errorf(research.ETRANSIENT, "x")))
	assert.False(t, p.Retryable(research.Errorf(research.EINVALID, "x")))
}
