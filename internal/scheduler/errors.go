package scheduler

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type SchedulerErrorCause string

const (
	ErrCauseStoreUnavailable SchedulerErrorCause = "cache store unavailable"
	ErrCauseStoreWriteFailed SchedulerErrorCause = "cache store write failed"
)

// SchedulerError is always fatal: the scheduler only raises its own
// error when the batch as a whole cannot continue. Per-key failures
// are outcomes, not errors.
type SchedulerError struct {
	Message string
	Cause   SchedulerErrorCause
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("scheduler error: %s", e.Cause)
}

func (e *SchedulerError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *SchedulerError) IsRetryable() bool {
	return false
}

// mapSchedulerErrorToMetadataCause maps scheduler-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSchedulerErrorToMetadataCause(err *SchedulerError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseStoreUnavailable, ErrCauseStoreWriteFailed:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
