package metadata

import "time"

// NoopSink discards every event. Used by tests and callers that do not
// want observability output.
type NoopSink struct{}

func (n *NoopSink) RecordFetch(videoKey string, httpStatus int, duration time.Duration, attempts int) {
}

func (n *NoopSink) RecordCacheHit(videoKey string) {}

func (n *NoopSink) RecordCacheWrite(videoKey string, contentHash string) {}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFinalBatchStats(
	batchID string,
	totalKeys int,
	cacheHits int,
	fetched int,
	failed int,
	duration time.Duration,
) {
}
