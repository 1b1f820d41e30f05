package tidal

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryConfig holds the retry policy for TransactionWithRetry.
type retryConfig struct {
	maxRetries      uint64
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// RetryOption configures TransactionWithRetry.
type RetryOption func(*retryConfig)

// WithMaxRetries caps the number of retries after the first attempt.
// Default is 5.
func WithMaxRetries(n uint64) RetryOption {
	return func(c *retryConfig) { c.maxRetries = n }
}

// WithInitialInterval sets the first backoff interval. Default is 50ms.
func WithInitialInterval(d time.Duration) RetryOption {
	return func(c *retryConfig) { c.initialInterval = d }
}

// WithMaxElapsed caps the total time spent retrying. Default is 10s.
func WithMaxElapsed(d time.Duration) RetryOption {
	return func(c *retryConfig) { c.maxElapsed = d }
}

// TransactionWithRetry runs fn in a transaction and retries the whole
// closure with exponential backoff when it fails with a retryable
// error (deadlock, serialization failure, lock timeout). fn must be
// safe to run more than once. Non-retryable errors and context
// cancellation stop the retries immediately.
func (db *Database) TransactionWithRetry(ctx context.Context, fn func(*Txn) error, opts ...RetryOption) error {
	cfg := retryConfig{
		maxRetries:      5,
		initialInterval: 50 * time.Millisecond,
		maxElapsed:      10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.initialInterval
	bo.MaxElapsedTime = cfg.maxElapsed
	attempt := 0
	operation := func() error {
		attempt++
		err := db.Transaction(ctx, fn)
		switch {
		case err == nil:
			return nil
		case IsRetryable(err):
			slog.Debug("retrying transaction", "attempt", attempt, "error", err)
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, cfg.maxRetries), ctx))
}
