package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBusy = errors.New("database is locked")

func isBusy(err error) bool {
	return errors.Is(err, errBusy)
}

func TestRetryPolicy_RetriesTransientFailures(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Backoff: time.Millisecond, Timeout: time.Second}

	calls := 0
	err := policy.Do(context.Background(), isBusy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustedReturnsStoreUnavailable(t *testing.T) {
	policy := RetryPolicy{Attempts: 2, Backoff: time.Millisecond, Timeout: time.Second}

	calls := 0
	err := policy.Do(context.Background(), isBusy, func(ctx context.Context) error {
		calls++
		return errBusy
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicy_PermanentErrorsAreNotRetried(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, Backoff: time.Millisecond, Timeout: time.Second}

	calls := 0
	err := policy.Do(context.Background(), isBusy, func(ctx context.Context) error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Permanent error must not be reported as unavailable")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_AttemptTimeout(t *testing.T) {
	policy := RetryPolicy{Attempts: 2, Backoff: time.Millisecond, Timeout: 10 * time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), isBusy, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable after timeouts, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), isBusy, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Expected a single successful call, got calls=%d err=%v", calls, err)
	}
}
