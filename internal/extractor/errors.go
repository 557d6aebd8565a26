package extractor

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCausePlayerResponseMissing = "player response not found"
	ErrCausePlayerResponseInvalid = "player response is not valid json"
	ErrCauseMissingIdentity       = "missing identity field"
	ErrCauseMalformedField        = "malformed field"
)

// ExtractionError is never retryable: a response that failed to parse
// once will fail to parse again.
type ExtractionError struct {
	Message string
	Cause   ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *ExtractionError) IsRetryable() bool {
	return false
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCausePlayerResponseMissing,
		ErrCausePlayerResponseInvalid,
		ErrCauseMissingIdentity,
		ErrCauseMalformedField:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
