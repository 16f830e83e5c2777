package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fiat-bridge-registry-go/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds every store call: each attempt gets Timeout, and
// transient failures are retried up to Attempts times in total.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

func NewRetryPolicy(cfg models.DatabaseConfig) RetryPolicy {
	return RetryPolicy{
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
		Timeout:  cfg.QueryTimeout,
	}
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
// Exhausted transient failures are reported as ErrStoreUnavailable.
func (p RetryPolicy) Do(ctx context.Context, isTransient func(error) bool, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.Backoff
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)

	retryable := func(err error) bool {
		return isTransient(err) || errors.Is(err, context.DeadlineExceeded)
	}

	var lastErr error
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		attemptCtx, cancel := p.attemptContext(ctx)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		zap.L().Warn("Transient store failure",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		return err
	}, policy)
	if err == nil {
		return nil
	}

	if lastErr != nil && retryable(lastErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, lastErr)
	}
	return err
}

func (p RetryPolicy) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}
