package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseVideoNotFound         = "video not found"
	ErrCauseVideoForbidden        = "video forbidden"
	ErrCauseRequestRejected       = "request rejected"
	ErrCauseRequestTooMany        = "too many requests"
	ErrCauseRequest5xx            = "5xx"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	// every fetch failure is a per-key outcome, never a batch abort
	return failure.SeverityRecoverable
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError, ErrCauseRequest5xx:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany:
		return metadata.CauseRateLimited
	case ErrCauseVideoNotFound, ErrCauseVideoForbidden, ErrCauseRequestRejected:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
