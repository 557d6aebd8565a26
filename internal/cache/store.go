package cache

import (
	"context"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

/*
Responsibilities
- Persist canonical video records keyed by video key
- Survive process restarts
- Point lookup and point write without full-store rewrite

Contract
- Put is an idempotent overwrite and is durable before it returns:
  a subsequent Get in the same or a later run observes the write.
- Entries are replaced wholesale, never partially updated.
- Entries never expire automatically; staleness is a caller decision
  expressed through the bypass-cache flag, not a store policy.
- Concurrent writes to the same key serialize (last writer wins, no
  torn reads); writes to distinct keys do not interfere.
*/

type Store interface {
	Has(ctx context.Context, key normalize.VideoKey) (bool, failure.ClassifiedError)

	// Get fails with a not-found CacheError when the key is absent.
	Get(ctx context.Context, key normalize.VideoKey) (Entry, failure.ClassifiedError)

	Put(
		ctx context.Context,
		record extractor.VideoRecord,
		contentHash string,
	) failure.ClassifiedError

	Close() error
}
