package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/service"
)

// ErrMaxRetries is returned once every attempt has failed.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError marks whether a failure is worth another attempt. Errors
// that are not wrapped in it are retried.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// backoff yields the wait before each retry, growing by the multiplier up to
// the cap.
type backoff struct {
	next       time.Duration
	limit      time.Duration
	multiplier float64
}

func newBackoff(opts service.RetryOptions) *backoff {
	b := &backoff{
		next:       opts.InitialDelay,
		limit:      opts.MaxDelay,
		multiplier: opts.Multiplier,
	}
	if b.next <= 0 {
		b.next = 100 * time.Millisecond
	}
	if b.limit <= 0 {
		b.limit = 30 * time.Second
	}
	if b.multiplier <= 0 {
		b.multiplier = 2
	}
	return b
}

func (b *backoff) wait() time.Duration {
	d := min(b.next, b.limit)
	b.next = time.Duration(float64(d) * b.multiplier)
	return d
}

// WithRetry runs operation until it succeeds, returns a permanent error, or
// runs out of attempts. Inserts must never go through here: a retried insert
// can record a payment twice.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delays := newBackoff(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		var marked *RetryableError
		if errors.As(err, &marked) && !marked.Retryable {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
		}

		delay := delays.wait()
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
