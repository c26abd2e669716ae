package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/draftmill/draftmill-api/internal/redact"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a failed pipeline step is re-attempted and how
// far the exponential backoff stretches between attempts.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDuration time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BaseDelay:   500 * time.Millisecond,
		MaxDuration: 30 * time.Second,
	}
}

// nonRetryableError marks an error that must never be retried: precondition
// failures and permanent collaborator errors (blocked content, malformed
// responses).
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks err so the retry envelope fails immediately instead of
// re-attempting. Returns nil if err is nil.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err (or anything it wraps) was marked with
// NonRetryable.
func IsNonRetryable(err error) bool {
	var nr *nonRetryableError
	return errors.As(err, &nr)
}

// Retry runs fn under the policy's retry envelope: exponential backoff with
// jitter, bounded attempts and total duration. Errors marked NonRetryable and
// context cancellation abort immediately. Every failed attempt is logged with
// the step name and a redacted error.
//
// The payload passed to fn never changes between attempts; idempotence of the
// step is what makes this safe.
func Retry[T any](ctx context.Context, policy RetryPolicy, step string, fn func(ctx context.Context) (T, error)) (T, error) {
	log := logger.FromContextOrDefault(ctx, nil).With(slog.String("step", step))

	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := policy.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultRetryPolicy().BaseDelay
	}

	backoff := retry.NewExponential(baseDelay)
	backoff = retry.WithJitter(baseDelay/4, backoff)
	if policy.MaxDuration > 0 {
		backoff = retry.WithMaxDuration(policy.MaxDuration, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(maxRetries), backoff)

	var out T
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		result, callErr := fn(ctx)
		if callErr == nil {
			out = result
			return nil
		}

		log.Warn("step attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("error", redact.Error(callErr)))

		if IsNonRetryable(callErr) || errors.Is(callErr, context.Canceled) ||
			errors.Is(callErr, context.DeadlineExceeded) {
			return callErr
		}
		return retry.RetryableError(callErr)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
