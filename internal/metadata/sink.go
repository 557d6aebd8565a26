package metadata

import "time"

/*
Metadata Collected
- Fetch timestamps and durations
- HTTP status codes
- Retry attempt counts
- Cache hit/write activity
- Content hashes

Logging Goals
- Debuggable batch behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the batch
 - Jitter is seed-controlled

Metadata is write-only.
No component may read metadata to influence pipeline decisions.
*/

// MetadataSink receives structured pipeline events.
// Implementations must not perform control-flow decisions.
type MetadataSink interface {
	RecordFetch(
		videoKey string,
		httpStatus int,
		duration time.Duration,
		attempts int,
	)

	RecordCacheHit(videoKey string)

	RecordCacheWrite(videoKey string, contentHash string)

	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		errorString string,
		attrs []Attribute,
	)
}

// BatchFinalizer records the terminal summary of a completed batch.
// It is recorded exactly once per batch, after all outcomes settle.
type BatchFinalizer interface {
	RecordFinalBatchStats(
		batchID string,
		totalKeys int,
		cacheHits int,
		fetched int,
		failed int,
		duration time.Duration,
	)
}
