package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/fileutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS video_cache (
	video_key    TEXT PRIMARY KEY,
	record       TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	fetched_at   TEXT NOT NULL
);`

// SqliteStore persists cache entries in a single sqlite database file.
// sqlite gives point lookup/write without full-store rewrite and the
// busy-timeout pragma serializes same-key writers instead of failing.
type SqliteStore struct {
	metadataSink metadata.MetadataSink
	db           *sql.DB
	path         string
}

func OpenSqliteStore(
	metadataSink metadata.MetadataSink,
	path string,
) (*SqliteStore, failure.ClassifiedError) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, openFailure(metadataSink, path, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, openFailure(metadataSink, path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, openFailure(metadataSink, path, err)
	}

	return &SqliteStore{
		metadataSink: metadataSink,
		db:           db,
		path:         path,
	}, nil
}

func (s *SqliteStore) Has(
	ctx context.Context,
	key normalize.VideoKey,
) (bool, failure.ClassifiedError) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM video_cache WHERE video_key = ?`, key.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.recordAndWrap(key, "SqliteStore.Has", &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseQueryFailure,
			Fatal:   true,
		})
	}
	return true, nil
}

func (s *SqliteStore) Get(
	ctx context.Context,
	key normalize.VideoKey,
) (Entry, failure.ClassifiedError) {
	var recordJSON string
	var contentHash string
	var fetchedAtRaw string

	err := s.db.QueryRowContext(ctx,
		`SELECT record, content_hash, fetched_at FROM video_cache WHERE video_key = ?`,
		key.String(),
	).Scan(&recordJSON, &contentHash, &fetchedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, &CacheError{
			Message: fmt.Sprintf("no entry for key %s", key),
			Cause:   ErrCauseNotFound,
		}
	}
	if err != nil {
		return Entry{}, s.recordAndWrap(key, "SqliteStore.Get", &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseQueryFailure,
			Fatal:   true,
		})
	}

	var dto recordDTO
	if err := json.Unmarshal([]byte(recordJSON), &dto); err != nil {
		return Entry{}, s.recordAndWrap(key, "SqliteStore.Get", &CacheError{
			Message: fmt.Sprintf("record for key %s: %v", key, err),
			Cause:   ErrCauseCorruptEntry,
		})
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedAtRaw)
	if err != nil {
		return Entry{}, s.recordAndWrap(key, "SqliteStore.Get", &CacheError{
			Message: fmt.Sprintf("fetched_at for key %s: %v", key, err),
			Cause:   ErrCauseCorruptEntry,
		})
	}

	return Entry{
		key:         key,
		record:      fromRecordDTO(dto),
		contentHash: contentHash,
		fetchedAt:   fetchedAt,
	}, nil
}

func (s *SqliteStore) Put(
	ctx context.Context,
	record extractor.VideoRecord,
	contentHash string,
) failure.ClassifiedError {
	recordJSON, err := json.Marshal(toRecordDTO(record))
	if err != nil {
		return s.recordAndWrap(record.Key(), "SqliteStore.Put", &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeError,
		})
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO video_cache (video_key, record, content_hash, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(video_key) DO UPDATE SET
			record = excluded.record,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at`,
		record.Key().String(),
		string(recordJSON),
		contentHash,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return s.recordAndWrap(record.Key(), "SqliteStore.Put", &CacheError{
			Message: err.Error(),
			Cause:   ErrCauseWriteFailure,
			Fatal:   true,
		})
	}

	s.metadataSink.RecordCacheWrite(record.Key().String(), contentHash)
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) recordAndWrap(
	key normalize.VideoKey,
	action string,
	cacheErr *CacheError,
) *CacheError {
	s.metadataSink.RecordError(
		time.Now(),
		"cache",
		action,
		mapCacheErrorToMetadataCause(cacheErr),
		cacheErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, key.String()),
			metadata.NewAttr(metadata.AttrCachePath, s.path),
		},
	)
	return cacheErr
}

func openFailure(
	metadataSink metadata.MetadataSink,
	path string,
	err error,
) *CacheError {
	cacheErr := &CacheError{
		Message: err.Error(),
		Cause:   ErrCauseOpenFailure,
		Fatal:   true,
	}
	metadataSink.RecordError(
		time.Now(),
		"cache",
		"cache.OpenSqliteStore",
		mapCacheErrorToMetadataCause(cacheErr),
		cacheErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrCachePath, path),
		},
	)
	return cacheErr
}
