package normalize

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type NormalizeErrorCause string

const (
	ErrCauseEmptyInput        = "empty input"
	ErrCauseUnrecognizedShape = "unrecognized url shape"
	ErrCauseMalformedKey      = "malformed video key"
)

// NormalizeError is always recoverable: an unparsable input becomes a
// per-key failure outcome, never a batch abort.
type NormalizeError struct {
	Message string
	Cause   NormalizeErrorCause
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize error: %s", e.Cause)
}

func (e *NormalizeError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *NormalizeError) IsRetryable() bool {
	return false
}
