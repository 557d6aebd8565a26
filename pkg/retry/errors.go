package retry

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type RetryErrorCause string

const (
	ErrZeroAttempt       = "zero attempt"
	ErrExhaustedAttempts = "exhausted attempt"
	ErrCancelled         = "cancelled"
)

type RetryError struct {
	Message   string
	Retryable bool
	Cause     RetryErrorCause
	LastErr   failure.ClassifiedError
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

func (e *RetryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RetryError) IsRetryable() bool {
	return e.Retryable
}

// Unwrap exposes the final attempt's error so callers can classify an
// exhausted retry by its underlying cause via errors.As.
func (e *RetryError) Unwrap() error {
	if e.LastErr == nil {
		return nil
	}
	return e.LastErr
}

// Is allows errors.Is to match RetryError types
func (e *RetryError) Is(target error) bool {
	_, ok := target.(*RetryError)
	return ok
}
