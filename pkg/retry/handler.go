package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/timeutil"
)

// Retry executes the provided function with retry logic.
// It will retry the function up to MaxAttempts times, applying exponential backoff
// with jitter between attempts. Only retryable errors will trigger a retry.
//
// The second return value is the number of attempts actually performed,
// including the final one, so callers can report it observationally.
//
// Cancellation of ctx stops further attempts promptly: the backoff sleep
// is interrupted and a non-retryable cancellation error is returned.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
) (T, int, failure.ClassifiedError) {
	var lastErr failure.ClassifiedError
	var zero T

	if retryParam.MaxAttempts < 1 {
		return zero, 0, &RetryError{
			Message:   "max attempt cannot be 0",
			Cause:     ErrZeroAttempt,
			Retryable: false,
		}
	}

	// Seed-controlled jitter keeps retry timing reproducible in tests.
	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, &RetryError{
				Message:   err.Error(),
				Cause:     ErrCancelled,
				Retryable: false,
				LastErr:   lastErr,
			}
		}

		result, err := fn()

		// Success case: no error
		if err == nil {
			return result, attempt, nil
		}

		lastErr = err

		// If not retryable, surface immediately
		if !isErrorRetryable(err) {
			return zero, attempt, err
		}

		// If this was the last attempt, break and return exhausted error
		if attempt == retryParam.MaxAttempts {
			return zero, attempt, &RetryError{
				Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
				Cause:     ErrExhaustedAttempts,
				Retryable: true, // recoverable at scheduler level
				LastErr:   lastErr,
			}
		}

		backoffDelay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			*rng,
			retryParam.BackoffParam,
		)

		select {
		case <-ctx.Done():
			return zero, attempt, &RetryError{
				Message:   ctx.Err().Error(),
				Cause:     ErrCancelled,
				Retryable: false,
				LastErr:   lastErr,
			}
		case <-time.After(backoffDelay):
		}
	}

	// Unreachable; the loop always returns.
	return zero, retryParam.MaxAttempts, lastErr
}

// isErrorRetryable checks if an error should be retried.
// It uses type assertion to check for the Retryable property.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	// Errors that do not classify themselves default to retryable.
	return true
}
