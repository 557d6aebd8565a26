package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Recorder captures structured batch events and writes them to a zerolog
logger.

It must not:
- perform I/O decisions
- affect control flow

Ordering guarantees:
- Events are recorded synchronously in the order they are received by a
  single worker.
- No global ordering across workers is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	workerId string
	logger   zerolog.Logger
}

func NewRecorder(workerId string, logger zerolog.Logger) Recorder {
	return Recorder{
		workerId: workerId,
		logger:   logger.With().Str("worker", workerId).Logger(),
	}
}

func (r *Recorder) RecordFetch(
	videoKey string,
	httpStatus int,
	duration time.Duration,
	attempts int,
) {
	r.logger.Info().
		Str("video_key", videoKey).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Int("attempts", attempts).
		Msg("fetch completed")
}

func (r *Recorder) RecordCacheHit(videoKey string) {
	r.logger.Debug().
		Str("video_key", videoKey).
		Msg("cache hit")
}

func (r *Recorder) RecordCacheWrite(videoKey string, contentHash string) {
	r.logger.Debug().
		Str("video_key", videoKey).
		Str("content_hash", contentHash).
		Msg("cache write")
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	evt := r.logger.Error().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Int("cause", int(cause)).
		Str("error", errorString)
	for _, attr := range attrs {
		evt = evt.Str(string(attr.Key), attr.Value)
	}
	evt.Msg("pipeline error")
}

func (r *Recorder) RecordFinalBatchStats(
	batchID string,
	totalKeys int,
	cacheHits int,
	fetched int,
	failed int,
	duration time.Duration,
) {
	r.logger.Info().
		Str("batch_id", batchID).
		Int("total_keys", totalKeys).
		Int("cache_hits", cacheHits).
		Int("fetched", fetched).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("batch finished")
}
