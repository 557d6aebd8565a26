package pool

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/fetcher"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/hashutil"
	"github.com/rohmanhakim/vid-fetcher/pkg/limiter"
	"github.com/rohmanhakim/vid-fetcher/pkg/retry"
)

/*
Responsibilities

- Fetch and parse a set of video keys with bounded concurrency
- Apply host pacing and backoff between requests
- Isolate failures: one key's failure never stops the others
- Emit exactly one Outcome per submitted key
- Report per-key progress transitions to the caller

Cancellation

Once the context is cancelled, workers stop fetching but keep draining
the task queue so every remaining key still gets a Cancelled outcome.
*/

type FetchPool struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	extractor    extractor.Extractor
	rateLimiter  limiter.RateLimiter
	retryParam   retry.RetryParam
	concurrency  int
	host         string
}

func NewFetchPool(
	metadataSink metadata.MetadataSink,
	videoFetcher fetcher.Fetcher,
	videoExtractor extractor.Extractor,
	rateLimiter limiter.RateLimiter,
	retryParam retry.RetryParam,
	concurrency int,
	watchBaseURL string,
) FetchPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return FetchPool{
		metadataSink: metadataSink,
		fetcher:      videoFetcher,
		extractor:    videoExtractor,
		rateLimiter:  rateLimiter,
		retryParam:   retryParam,
		concurrency:  concurrency,
		host:         hostOf(watchBaseURL),
	}
}

// Run fans the keys out across the pool's workers and returns a channel
// that yields one Outcome per key, in completion order. The channel is
// closed after the last outcome.
func (p *FetchPool) Run(
	ctx context.Context,
	keys []normalize.VideoKey,
	progress metadata.ProgressFunc,
) <-chan Outcome {
	outcomes := make(chan Outcome, len(keys))
	tasks := make(chan normalize.VideoKey, len(keys))

	for _, key := range keys {
		tasks <- key
	}
	close(tasks)

	group := new(errgroup.Group)
	for i := 0; i < p.concurrency; i++ {
		group.Go(func() error {
			p.work(ctx, tasks, outcomes, progress)
			return nil
		})
	}

	go func() {
		group.Wait()
		close(outcomes)
	}()

	return outcomes
}

func (p *FetchPool) work(
	ctx context.Context,
	tasks <-chan normalize.VideoKey,
	outcomes chan<- Outcome,
	progress metadata.ProgressFunc,
) {
	for key := range tasks {
		if ctx.Err() != nil {
			// drain so the key still gets its outcome
			emitProgress(progress, key, metadata.StatusFailed)
			outcomes <- NewFailureOutcome(key, FailureCancelled, "batch cancelled", 0)
			continue
		}

		emitProgress(progress, key, metadata.StatusFetching)
		outcomes <- p.fetchOne(ctx, key, progress)
	}
}

func (p *FetchPool) fetchOne(
	ctx context.Context,
	key normalize.VideoKey,
	progress metadata.ProgressFunc,
) Outcome {
	if err := p.pace(ctx); err != nil {
		emitProgress(progress, key, metadata.StatusFailed)
		return NewFailureOutcome(key, FailureCancelled, "batch cancelled", 0)
	}

	result, fetchErr := p.fetcher.Fetch(ctx, key, p.retryParam)
	if fetchErr != nil {
		kind := classifyFailure(fetchErr)
		if kind == FailureRateLimited {
			p.rateLimiter.Backoff(p.host)
		}
		emitProgress(progress, key, metadata.StatusFailed)
		return NewFailureOutcome(key, kind, fetchErr.Error(), result.Attempts())
	}

	p.rateLimiter.MarkLastFetchAsNow(p.host)
	p.rateLimiter.ResetBackoff(p.host)

	record, extractErr := p.extractor.Extract(key, result.Body())
	if extractErr != nil {
		emitProgress(progress, key, metadata.StatusFailed)
		return NewFailureOutcome(key, classifyFailure(extractErr), extractErr.Error(), result.Attempts())
	}

	contentHash, hashErr := hashutil.HashBytes(result.Body(), hashutil.HashAlgoBLAKE3)
	if hashErr != nil {
		emitProgress(progress, key, metadata.StatusFailed)
		return NewFailureOutcome(key, FailureParse, hashErr.Error(), result.Attempts())
	}

	emitProgress(progress, key, metadata.StatusSuccess)
	return NewSuccessOutcome(key, record, contentHash, result.Attempts())
}

// pace sleeps out the host's accumulated backoff and base delay. The
// sleep is interruptible by cancellation.
func (p *FetchPool) pace(ctx context.Context) error {
	delay := p.rateLimiter.ResolveDelay(p.host)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func emitProgress(progress metadata.ProgressFunc, key normalize.VideoKey, status metadata.ProgressStatus) {
	if progress == nil {
		return
	}
	progress(metadata.ProgressEvent{Key: key.String(), Status: status})
}

func hostOf(watchBaseURL string) string {
	parsed, err := url.Parse(watchBaseURL)
	if err != nil || parsed.Host == "" {
		return watchBaseURL
	}
	return parsed.Host
}
