package cache

import (
	"fmt"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseNotFound     = "entry not found"
	ErrCauseOpenFailure  = "failed to open cache database"
	ErrCauseQueryFailure = "query failed"
	ErrCauseWriteFailure = "write failed"
	ErrCauseEncodeError  = "failed to encode record"
	ErrCauseCorruptEntry = "corrupt entry"
)

type CacheError struct {
	Message string
	Cause   CacheErrorCause
	Fatal   bool
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s", e.Cause)
}

// Severity: an unavailable or failing store is the one condition that
// aborts the whole batch; a missing or corrupt single entry is not.
func (e *CacheError) Severity() failure.Severity {
	if e.Fatal {
		return failure.SeverityFatal
	}
	return failure.SeverityRecoverable
}

func (e *CacheError) IsRetryable() bool {
	return false
}

// IsNotFound reports whether err is the store's missing-entry error.
func IsNotFound(err error) bool {
	cacheErr, ok := err.(*CacheError)
	return ok && cacheErr.Cause == ErrCauseNotFound
}

// mapCacheErrorToMetadataCause maps store-local error semantics to the
// canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOpenFailure, ErrCauseQueryFailure, ErrCauseWriteFailure:
		return metadata.CauseStorageFailure
	case ErrCauseEncodeError, ErrCauseCorruptEntry:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
