package scheduler

import (
	"github.com/rohmanhakim/vid-fetcher/internal/pool"
)

// BatchRequest carries one batch submission: the raw inputs as the
// caller provided them plus the cache-bypass decision for this run.
type BatchRequest struct {
	inputs      []string
	bypassCache bool
}

func NewBatchRequest(inputs []string, bypassCache bool) BatchRequest {
	copied := make([]string, len(inputs))
	copy(copied, inputs)
	return BatchRequest{
		inputs:      copied,
		bypassCache: bypassCache,
	}
}

func (r BatchRequest) Inputs() []string {
	copied := make([]string, len(r.inputs))
	copy(copied, r.inputs)
	return copied
}

func (r BatchRequest) BypassCache() bool {
	return r.bypassCache
}

// BatchExecution is the settled result of one batch: outcomes in the
// first-seen order of the deduplicated inputs, one per key.
type BatchExecution struct {
	batchID  string
	outcomes []pool.Outcome
}

func (e BatchExecution) BatchID() string {
	return e.batchID
}

func (e BatchExecution) Outcomes() []pool.Outcome {
	copied := make([]pool.Outcome, len(e.outcomes))
	copy(copied, e.outcomes)
	return copied
}
