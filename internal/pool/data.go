package pool

import (
	"errors"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/fetcher"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/retry"
)

type FailureKind string

const (
	FailureInvalidInput     FailureKind = "invalid_input"
	FailureNotFound         FailureKind = "not_found"
	FailureRateLimited      FailureKind = "rate_limited"
	FailureTransientNetwork FailureKind = "transient_network"
	FailureParse            FailureKind = "parse_error"
	FailureCancelled        FailureKind = "cancelled"
)

// Outcome is the terminal result for one video key. A batch produces
// exactly one Outcome per key, success or failure.
type Outcome struct {
	key            normalize.VideoKey
	record         extractor.VideoRecord
	contentHash    string
	fromCache      bool
	attempts       int
	succeeded      bool
	failureKind    FailureKind
	failureMessage string
}

func NewSuccessOutcome(
	key normalize.VideoKey,
	record extractor.VideoRecord,
	contentHash string,
	attempts int,
) Outcome {
	return Outcome{
		key:         key,
		record:      record,
		contentHash: contentHash,
		attempts:    attempts,
		succeeded:   true,
	}
}

func NewCacheHitOutcome(
	key normalize.VideoKey,
	record extractor.VideoRecord,
	contentHash string,
) Outcome {
	return Outcome{
		key:         key,
		record:      record,
		contentHash: contentHash,
		fromCache:   true,
		succeeded:   true,
	}
}

func NewFailureOutcome(
	key normalize.VideoKey,
	kind FailureKind,
	message string,
	attempts int,
) Outcome {
	return Outcome{
		key:            key,
		attempts:       attempts,
		failureKind:    kind,
		failureMessage: message,
	}
}

func (o Outcome) Key() normalize.VideoKey {
	return o.key
}

func (o Outcome) Record() extractor.VideoRecord {
	return o.record
}

func (o Outcome) ContentHash() string {
	return o.contentHash
}

func (o Outcome) FromCache() bool {
	return o.fromCache
}

func (o Outcome) Attempts() int {
	return o.attempts
}

func (o Outcome) Succeeded() bool {
	return o.succeeded
}

func (o Outcome) FailureKind() FailureKind {
	return o.failureKind
}

func (o Outcome) FailureMessage() string {
	return o.failureMessage
}

// classifyFailure maps a classified fetch or extraction error onto the
// failure taxonomy reported to callers. Exhausted retry budgets are
// classified by the last attempt's underlying error.
func classifyFailure(err failure.ClassifiedError) FailureKind {
	var retryErr *retry.RetryError
	if errors.As(err, &retryErr) {
		switch retryErr.Cause {
		case retry.ErrCancelled:
			return FailureCancelled
		case retry.ErrZeroAttempt:
			return FailureTransientNetwork
		}
	}

	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Cause {
		case fetcher.ErrCauseVideoNotFound,
			fetcher.ErrCauseVideoForbidden,
			fetcher.ErrCauseRequestRejected:
			return FailureNotFound
		case fetcher.ErrCauseRequestTooMany:
			return FailureRateLimited
		case fetcher.ErrCauseTimeout:
			return FailureCancelled
		default:
			return FailureTransientNetwork
		}
	}

	var extractErr *extractor.ExtractionError
	if errors.As(err, &extractErr) {
		return FailureParse
	}

	return FailureTransientNetwork
}
