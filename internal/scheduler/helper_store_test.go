package scheduler_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/rohmanhakim/vid-fetcher/internal/cache"
	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
)

// memStore is an in-memory cache.Store with switchable failure modes.
type memStore struct {
	mu       sync.Mutex
	entries  map[normalize.VideoKey]memEntry
	failHas  bool
	failPut  bool
	putCalls int
	closed   bool
}

type memEntry struct {
	record      extractor.VideoRecord
	contentHash string
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[normalize.VideoKey]memEntry)}
}

func (s *memStore) seed(record extractor.VideoRecord, contentHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[record.Key()] = memEntry{record: record, contentHash: contentHash}
}

func (s *memStore) Has(ctx context.Context, key normalize.VideoKey) (bool, failure.ClassifiedError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failHas {
		return false, &cache.CacheError{
			Message: "store unavailable",
			Cause:   cache.ErrCauseQueryFailure,
			Fatal:   true,
		}
	}
	_, exists := s.entries[key]
	return exists, nil
}

func (s *memStore) Get(ctx context.Context, key normalize.VideoKey) (cache.Entry, failure.ClassifiedError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, exists := s.entries[key]
	if !exists {
		return cache.Entry{}, &cache.CacheError{
			Message: fmt.Sprintf("no entry for key %s", key),
			Cause:   cache.ErrCauseNotFound,
		}
	}
	return cache.NewEntryForTest(entry.record, entry.contentHash, timeNowForTest()), nil
}

func (s *memStore) Put(
	ctx context.Context,
	record extractor.VideoRecord,
	contentHash string,
) failure.ClassifiedError {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return &cache.CacheError{
			Message: "disk full",
			Cause:   cache.ErrCauseWriteFailure,
			Fatal:   true,
		}
	}
	s.entries[record.Key()] = memEntry{record: record, contentHash: contentHash}
	return nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) contains(key normalize.VideoKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.entries[key]
	return exists
}
