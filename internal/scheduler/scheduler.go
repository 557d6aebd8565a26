package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rohmanhakim/vid-fetcher/internal/cache"
	"github.com/rohmanhakim/vid-fetcher/internal/config"
	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/fetcher"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/internal/pool"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/limiter"
	"github.com/rohmanhakim/vid-fetcher/pkg/retry"
	"github.com/rohmanhakim/vid-fetcher/pkg/timeutil"
)

/*
 Scheduler is the sole control-plane authority of a batch.

 Determinism and ordering guarantees:
 - Scheduler is the ONLY component that decides whether a key is
   served from cache or handed to the fetch pool.
 - Every deduplicated key settles into exactly one outcome, and the
   returned outcomes follow the first-seen order of the inputs.
 - A fetched record is persisted to the cache BEFORE its success
   outcome is reported; a reported success is always re-readable.
 - Pipeline stages may detect and classify failure, but must never
   decide retry, continuation, or abortion.

 Only a failing cache store aborts the batch. Per-key fetch and parse
 failures are isolated into failure outcomes.

 Metadata emission is observational only and MUST NOT influence
 partitioning, retries, or batch termination.
*/

type fetchRunner interface {
	Run(
		ctx context.Context,
		keys []normalize.VideoKey,
		progress metadata.ProgressFunc,
	) <-chan pool.Outcome
}

type Scheduler struct {
	metadataSink   metadata.MetadataSink
	batchFinalizer metadata.BatchFinalizer
	cacheStore     cache.Store
	fetchPool      fetchRunner
	progress       metadata.ProgressFunc
	maxBatchSize   int
}

// NewScheduler wires the full pipeline from config: sqlite-backed
// cache store, watch-page fetcher behind the global rate ceiling,
// player-response extractor and the bounded fetch pool.
func NewScheduler(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	batchFinalizer metadata.BatchFinalizer,
	progress metadata.ProgressFunc,
) (Scheduler, failure.ClassifiedError) {
	store, err := cache.OpenSqliteStore(metadataSink, cfg.CachePath())
	if err != nil {
		return Scheduler{}, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	watchFetcher := fetcher.NewWatchFetcher(
		metadataSink,
		httpClient,
		cfg.WatchBaseURL(),
		cfg.UserAgent(),
		cfg.RequestsPerSecond(),
	)
	playerExtractor := extractor.NewPlayerResponseExtractor(metadataSink)

	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())

	retryParam := retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)

	fetchPool := pool.NewFetchPool(
		metadataSink,
		&watchFetcher,
		&playerExtractor,
		rateLimiter,
		retryParam,
		cfg.Concurrency(),
		cfg.WatchBaseURL(),
	)

	return Scheduler{
		metadataSink:   metadataSink,
		batchFinalizer: batchFinalizer,
		cacheStore:     store,
		fetchPool:      &fetchPool,
		progress:       progress,
		maxBatchSize:   cfg.MaxBatchSize(),
	}, nil
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for testing.
// This constructor allows tests to provide mock implementations of the store,
// pool and metadata interfaces to verify behavior without real infrastructure.
func NewSchedulerWithDeps(
	metadataSink metadata.MetadataSink,
	batchFinalizer metadata.BatchFinalizer,
	cacheStore cache.Store,
	fetchPool fetchRunner,
	progress metadata.ProgressFunc,
	maxBatchSize int,
) Scheduler {
	return Scheduler{
		metadataSink:   metadataSink,
		batchFinalizer: batchFinalizer,
		cacheStore:     cacheStore,
		fetchPool:      fetchPool,
		progress:       progress,
		maxBatchSize:   maxBatchSize,
	}
}

// ExecuteBatch runs one batch end to end: normalize and deduplicate,
// partition against the cache, fetch the misses, persist fetched
// records, then merge everything back into input order.
//
// The returned error is nil unless the batch as a whole aborted; in
// that case no outcomes are returned.
func (s *Scheduler) ExecuteBatch(
	ctx context.Context,
	request BatchRequest,
) (BatchExecution, failure.ClassifiedError) {
	batchID := uuid.NewString()
	startTime := time.Now()

	resolutions := normalize.NormalizeBatch(request.Inputs())
	resolutions = s.truncateToBatchLimit(batchID, resolutions)

	for _, resolution := range resolutions {
		if resolution.Err() != nil {
			continue
		}
		s.emitProgress(resolution.Key().String(), metadata.StatusPending)
	}

	outcomesByKey := make(map[normalize.VideoKey]pool.Outcome, len(resolutions))

	toFetch, err := s.partition(ctx, request, resolutions, outcomesByKey)
	if err != nil {
		return BatchExecution{}, err
	}

	if err := s.fetchAndPersist(ctx, batchID, toFetch, outcomesByKey); err != nil {
		return BatchExecution{}, err
	}

	outcomes := s.merge(resolutions, outcomesByKey)

	s.finalize(batchID, outcomes, startTime)

	return BatchExecution{
		batchID:  batchID,
		outcomes: outcomes,
	}, nil
}

// Close releases the cache store. The scheduler is unusable afterwards.
func (s *Scheduler) Close() error {
	return s.cacheStore.Close()
}

func (s *Scheduler) truncateToBatchLimit(
	batchID string,
	resolutions []normalize.Resolution,
) []normalize.Resolution {
	if s.maxBatchSize <= 0 || len(resolutions) <= s.maxBatchSize {
		return resolutions
	}

	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		"Scheduler.ExecuteBatch",
		metadata.CauseInvalidInput,
		fmt.Sprintf("batch truncated from %d to %d keys", len(resolutions), s.maxBatchSize),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrBatchID, batchID),
		},
	)
	return resolutions[:s.maxBatchSize]
}

// partition settles invalid inputs and cache hits immediately and
// returns the keys that still need fetching. Only a failing store
// aborts; a corrupt or missing entry just demotes the key to a fetch.
func (s *Scheduler) partition(
	ctx context.Context,
	request BatchRequest,
	resolutions []normalize.Resolution,
	outcomesByKey map[normalize.VideoKey]pool.Outcome,
) ([]normalize.VideoKey, failure.ClassifiedError) {
	toFetch := make([]normalize.VideoKey, 0, len(resolutions))

	for _, resolution := range resolutions {
		if resolution.Err() != nil {
			key := normalize.VideoKey(resolution.Raw())
			outcomesByKey[key] = pool.NewFailureOutcome(
				key,
				pool.FailureInvalidInput,
				resolution.Err().Error(),
				0,
			)
			s.emitProgress(key.String(), metadata.StatusFailed)
			continue
		}

		key := resolution.Key()

		if request.BypassCache() || ctx.Err() != nil {
			toFetch = append(toFetch, key)
			continue
		}

		hit, hasErr := s.cacheStore.Has(ctx, key)
		if hasErr != nil {
			if hasErr.Severity() == failure.SeverityFatal {
				return nil, hasErr
			}
			toFetch = append(toFetch, key)
			continue
		}
		if !hit {
			toFetch = append(toFetch, key)
			continue
		}

		entry, getErr := s.cacheStore.Get(ctx, key)
		if getErr != nil {
			if getErr.Severity() == failure.SeverityFatal {
				return nil, getErr
			}
			// missing or corrupt entry, refetch instead of failing the key
			toFetch = append(toFetch, key)
			continue
		}

		outcomesByKey[key] = pool.NewCacheHitOutcome(key, entry.Record(), entry.ContentHash())
		s.metadataSink.RecordCacheHit(key.String())
		s.emitProgress(key.String(), metadata.StatusCacheHit)
	}

	return toFetch, nil
}

// fetchAndPersist runs the pool over the cache misses and persists
// every fetched record before its success outcome becomes visible.
func (s *Scheduler) fetchAndPersist(
	ctx context.Context,
	batchID string,
	toFetch []normalize.VideoKey,
	outcomesByKey map[normalize.VideoKey]pool.Outcome,
) failure.ClassifiedError {
	if len(toFetch) == 0 {
		return nil
	}

	for outcome := range s.fetchPool.Run(ctx, toFetch, s.progress) {
		if !outcome.Succeeded() {
			outcomesByKey[outcome.Key()] = outcome
			continue
		}

		if putErr := s.cacheStore.Put(ctx, outcome.Record(), outcome.ContentHash()); putErr != nil {
			schedErr := &SchedulerError{
				Message: fmt.Sprintf("persist record for key %s: %v", outcome.Key(), putErr),
				Cause:   ErrCauseStoreWriteFailed,
			}
			s.recordError(batchID, "Scheduler.ExecuteBatch", schedErr)
			return schedErr
		}

		outcomesByKey[outcome.Key()] = outcome
	}

	return nil
}

// merge rebuilds the outcome list in the first-seen order of the
// deduplicated inputs. Every resolution must have settled by now; a
// hole means a key was lost and is surfaced as a cancelled outcome.
func (s *Scheduler) merge(
	resolutions []normalize.Resolution,
	outcomesByKey map[normalize.VideoKey]pool.Outcome,
) []pool.Outcome {
	outcomes := make([]pool.Outcome, 0, len(resolutions))

	for _, resolution := range resolutions {
		key := resolution.Key()
		if resolution.Err() != nil {
			key = normalize.VideoKey(resolution.Raw())
		}

		outcome, settled := outcomesByKey[key]
		if !settled {
			outcome = pool.NewFailureOutcome(key, pool.FailureCancelled, "no outcome recorded", 0)
			s.metadataSink.RecordError(
				time.Now(),
				"scheduler",
				"Scheduler.ExecuteBatch",
				metadata.CauseUnknown,
				fmt.Sprintf("key %s settled without an outcome", key),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrKey, key.String()),
				},
			)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *Scheduler) finalize(batchID string, outcomes []pool.Outcome, startTime time.Time) {
	var cacheHits, fetched, failed int
	for _, outcome := range outcomes {
		switch {
		case outcome.Succeeded() && outcome.FromCache():
			cacheHits++
		case outcome.Succeeded():
			fetched++
		default:
			failed++
		}
	}

	s.batchFinalizer.RecordFinalBatchStats(
		batchID,
		len(outcomes),
		cacheHits,
		fetched,
		failed,
		time.Since(startTime),
	)
}

func (s *Scheduler) recordError(batchID string, action string, err *SchedulerError) {
	s.metadataSink.RecordError(
		time.Now(),
		"scheduler",
		action,
		mapSchedulerErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrBatchID, batchID),
		},
	)
}

func (s *Scheduler) emitProgress(key string, status metadata.ProgressStatus) {
	if s.progress == nil {
		return
	}
	s.progress(metadata.ProgressEvent{Key: key, Status: status})
}
