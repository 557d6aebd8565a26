package scheduler_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/internal/pool"
)

func timeNowForTest() time.Time {
	return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
}

func recordForTest(key normalize.VideoKey, title string) extractor.VideoRecord {
	return extractor.NewVideoRecord(extractor.VideoRecordParam{
		Key:   key,
		Title: title,
	})
}

// stubRunner replays canned outcomes per key and captures which keys
// were submitted for fetching.
type stubRunner struct {
	mu        sync.Mutex
	outcomes  map[normalize.VideoKey]pool.Outcome
	submitted [][]normalize.VideoKey
}

func newStubRunner() *stubRunner {
	return &stubRunner{outcomes: make(map[normalize.VideoKey]pool.Outcome)}
}

func (r *stubRunner) succeedWith(key normalize.VideoKey, title string, attempts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[key] = pool.NewSuccessOutcome(key, recordForTest(key, title), "hash-"+key.String(), attempts)
}

func (r *stubRunner) failWith(key normalize.VideoKey, kind pool.FailureKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[key] = pool.NewFailureOutcome(key, kind, message, 1)
}

func (r *stubRunner) Run(
	ctx context.Context,
	keys []normalize.VideoKey,
	progress metadata.ProgressFunc,
) <-chan pool.Outcome {
	r.mu.Lock()
	submitted := make([]normalize.VideoKey, len(keys))
	copy(submitted, keys)
	r.submitted = append(r.submitted, submitted)
	r.mu.Unlock()

	outcomes := make(chan pool.Outcome, len(keys))
	go func() {
		defer close(outcomes)
		for _, key := range keys {
			r.mu.Lock()
			outcome, canned := r.outcomes[key]
			r.mu.Unlock()
			if !canned {
				outcome = pool.NewSuccessOutcome(key, recordForTest(key, key.String()), "hash-"+key.String(), 1)
			}
			outcomes <- outcome
		}
	}()
	return outcomes
}

func (r *stubRunner) submittedKeys() []normalize.VideoKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []normalize.VideoKey
	for _, batch := range r.submitted {
		all = append(all, batch...)
	}
	return all
}

// captureFinalizer records the final batch stats for assertions.
type captureFinalizer struct {
	mu        sync.Mutex
	batchID   string
	totalKeys int
	cacheHits int
	fetched   int
	failed    int
	calls     int
}

func (f *captureFinalizer) RecordFinalBatchStats(
	batchID string,
	totalKeys int,
	cacheHits int,
	fetched int,
	failed int,
	duration time.Duration,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchID = batchID
	f.totalKeys = totalKeys
	f.cacheHits = cacheHits
	f.fetched = fetched
	f.failed = failed
	f.calls++
}
