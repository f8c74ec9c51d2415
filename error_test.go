package research_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/research"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := research.Errorf(research.ENOTFOUND, "session %q not found", "test")

	assert.Equal(t, research.ENOTFOUND, research.ErrorCode(err))
	assert.Equal(t, "session \"test\" not found", research.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, research.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, research.ErrorMessage(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("disk on fire")

	assert.Equal(t, research.EINTERNAL, research.ErrorCode(err))
	assert.Equal(t, "Internal error.", research.ErrorMessage(err))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	t.Run("transient code is retryable", func(t *testing.T) {
		t.Parallel()
		assert.True(t, research.IsTransient(research.Errorf(research.ETRANSIENT, "HTTP 503")))
	})

	t.Run("wrapped transient error is retryable", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("fetch: %w", research.Errorf(research.ETRANSIENT, "timeout"))
		assert.True(t, research.IsTransient(err))
	})

	t.Run("not found is not retryable", func(t *testing.T) {
		t.Parallel()
		assert.False(t, research.IsTransient(research.Errorf(research.ENOTFOUND, "HTTP 404")))
	})

	t.Run("context cancellation is not retryable", func(t *testing.T) {
		t.Parallel()
		assert.False(t, research.IsTransient(context.Canceled))
	})
}
