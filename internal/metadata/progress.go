package metadata

// Progress reporting surface consumed by presentation layers.
// Events are observational: emitting or dropping them never changes
// which keys are fetched or how outcomes settle.

type ProgressStatus string

const (
	StatusPending  ProgressStatus = "pending"
	StatusCacheHit ProgressStatus = "cache_hit"
	StatusFetching ProgressStatus = "fetching"
	StatusSuccess  ProgressStatus = "success"
	StatusFailed   ProgressStatus = "failed"
)

type ProgressEvent struct {
	Key    string
	Status ProgressStatus
}

// ProgressFunc receives one event per key-state transition.
// A nil ProgressFunc is valid and means "no progress reporting".
// Implementations must return quickly; they are called from fetch workers.
type ProgressFunc func(ProgressEvent)
