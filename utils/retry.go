package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *Logger
}

// Backoff returns the delay before retry number attempt (1-based), doubling
// from BaseDelay and capped by MaxDelay when set.
func (r *RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := r.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	return delay
}

// Do executes fn with exponential back-off retry logic. It gives up early
// when ctx is done.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := r.Backoff(attempt)
		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
				operationName, attempt, attempts, lastErr, delay)
		}
		if err := Sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w (last error: %v)", operationName, err, lastErr)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
