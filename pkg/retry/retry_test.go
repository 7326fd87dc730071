package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Do(ctx, fastConfig(), func() error {
			calls++
			return boom
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		cfg := fastConfig()
		cfg.MaxAttempts = 0

		err := Do(ctx, cfg, func() error { return nil })
		assert.Error(t, err)
	})
}

func TestDoWithResult(t *testing.T) {
	ctx := context.Background()

	t.Run("returns result", func(t *testing.T) {
		result, err := DoWithResult(ctx, fastConfig(), func() (string, error) {
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		cfg := fastConfig()
		cfg.RetryableErrors = []string{"connection refused"}

		calls := 0
		_, err := DoWithResult(ctx, cfg, func() (int, error) {
			calls++
			return 0, errors.New("permission denied")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retryable pattern matches case-insensitively", func(t *testing.T) {
		cfg := fastConfig()
		cfg.RetryableErrors = []string{"Service Unavailable"}

		calls := 0
		_, err := DoWithResult(ctx, cfg, func() (int, error) {
			calls++
			return 0, errors.New("503 service unavailable")
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := DoWithResult(cancelled, fastConfig(), func() (int, error) {
			return 0, errors.New("should retry")
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryableError(t *testing.T) {
	t.Run("nil error is not retryable", func(t *testing.T) {
		assert.False(t, IsRetryableError(nil, DefaultConfig()))
	})

	t.Run("empty pattern list retries everything", func(t *testing.T) {
		assert.True(t, IsRetryableError(errors.New("anything"), DefaultConfig()))
	})

	t.Run("transient patterns match network failures", func(t *testing.T) {
		cfg := TransientConfig()

		assert.True(t, IsRetryableError(errors.New(`dial tcp: connection refused`), cfg))
		assert.True(t, IsRetryableError(errors.New("502 Bad Gateway"), cfg))
		assert.False(t, IsRetryableError(errors.New("404 Not Found"), cfg))
	})
}

func TestBackoffDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, backoffDelay(0, cfg))
	assert.Equal(t, 2*time.Second, backoffDelay(1, cfg))
	assert.Equal(t, 4*time.Second, backoffDelay(2, cfg))
	assert.Equal(t, 5*time.Second, backoffDelay(3, cfg), "capped at MaxDelay")
	assert.Equal(t, time.Second, backoffDelay(-1, cfg), "negative attempt clamped")
}
