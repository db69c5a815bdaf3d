package schedule

import (
	"context"
	"time"
)

const (
	// retryAttempts bounds in-cycle retries of transient failures.
	retryAttempts = 3
	// initialRetryBackoff doubles on each attempt (1s, 2s, 4s).
	initialRetryBackoff = time.Second
)

// withRetry runs fn up to retryAttempts times, waiting with exponential
// backoff between attempts. Only errors for which retryable returns true
// are retried; anything else is returned immediately. The backoff wait is
// cancellable through ctx.
func withRetry(ctx context.Context, fn func() error, retryable func(error) bool) error {
	delay := initialRetryBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !retryable(err) || attempt == retryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
