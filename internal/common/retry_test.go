package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrNetwork
			}
			return nil
		}, fastRetry(3))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		permanent := &RetryableError{Err: errors.New("bad request"), Retryable: false}
		err := WithRetry(context.Background(), func() error {
			calls++
			return permanent
		}, fastRetry(5))
		assert.Equal(t, permanent, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("reports exhaustion", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error {
			return ErrNetwork
		}, fastRetry(2))
		assert.ErrorIs(t, err, ErrMaxRetries)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		opts := fastRetry(3)
		opts.InitialDelay = time.Second
		err := WithRetry(ctx, func() error { return ErrNetwork }, opts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUserError(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := NewUserError("Failed to fetch transactions", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "Failed to fetch transactions: dial tcp: refused", err.Error())
	assert.Equal(t, "Failed to fetch transactions", UserMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserMessage(base, "fallback"))
}

func TestBackoff(t *testing.T) {
	b := newBackoff(service.RetryOptions{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     35 * time.Millisecond,
		Multiplier:   2,
	})

	var got []time.Duration
	for range 4 {
		got = append(got, b.wait())
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		35 * time.Millisecond,
		35 * time.Millisecond,
	}, got)
}

func TestBackoff_Defaults(t *testing.T) {
	b := newBackoff(service.RetryOptions{})
	assert.Equal(t, 100*time.Millisecond, b.wait())
	assert.Equal(t, 200*time.Millisecond, b.wait())
}
