package metadata

import (
	"time"
)

type FetchEvent struct {
	videoKey   string
	httpStatus int
	duration   time.Duration
	attempts   int
}

/*
batchStats
  - Represents a terminal, derived summary of a completed batch
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after batch termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or batch termination
*/
type batchStats struct {
	totalKeys  int
	cacheHits  int
	fetched    int
	failed     int
	durationMs int64
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

  - Failure caused by network transport or remote availability.
  - TCP timeouts, DNS resolution failures, connection resets, 5xx responses.

# CauseRateLimited

  - The upstream signalled request throttling (HTTP 429).

# CauseContentInvalid

  - Content was fetched but could not be processed meaningfully.
  - Missing player response, malformed JSON, absent identity fields.

# CauseStorageFailure

  - Failure while reading or persisting cache entries.
  - Disk full, write permission errors, corrupt rows.

# CauseInvalidInput

  - A raw input line could not be resolved to a video key.

# CauseCancelled

  - The batch was cancelled while the key was still unsettled.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseRateLimited
	CauseContentInvalid
	CauseStorageFailure
	CauseInvalidInput
	CauseCancelled
)

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrKey        AttributeKey = "video_key"
	AttrInput      AttributeKey = "input"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAttempts   AttributeKey = "attempts"
	AttrBatchID    AttributeKey = "batch_id"
	AttrCachePath  AttributeKey = "cache_path"
	AttrField      AttributeKey = "field"
)
