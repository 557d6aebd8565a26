package metadata_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
)

func newRecorderWithBuffer() (metadata.Recorder, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)
	return metadata.NewRecorder("test-worker", logger), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	return event
}

func TestRecordFetch(t *testing.T) {
	recorder, buf := newRecorderWithBuffer()

	recorder.RecordFetch("dQw4w9WgXcQ", 200, 1500*time.Millisecond, 2)

	event := decodeLine(t, buf)
	assert.Equal(t, "test-worker", event["worker"])
	assert.Equal(t, "dQw4w9WgXcQ", event["video_key"])
	assert.Equal(t, float64(200), event["http_status"])
	assert.Equal(t, float64(2), event["attempts"])
	assert.Equal(t, "fetch completed", event["message"])
}

func TestRecordCacheEvents(t *testing.T) {
	recorder, buf := newRecorderWithBuffer()

	recorder.RecordCacheHit("dQw4w9WgXcQ")
	event := decodeLine(t, buf)
	assert.Equal(t, "cache hit", event["message"])

	buf.Reset()
	recorder.RecordCacheWrite("dQw4w9WgXcQ", "abc123")
	event = decodeLine(t, buf)
	assert.Equal(t, "cache write", event["message"])
	assert.Equal(t, "abc123", event["content_hash"])
}

func TestRecordErrorCarriesAttributes(t *testing.T) {
	recorder, buf := newRecorderWithBuffer()

	recorder.RecordError(
		time.Now(),
		"fetcher",
		"WatchFetcher.Fetch",
		metadata.CauseNetworkFailure,
		"request failed",
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, "dQw4w9WgXcQ"),
			metadata.NewAttr(metadata.AttrHost, "www.youtube.com"),
		},
	)

	event := decodeLine(t, buf)
	assert.Equal(t, "error", event["level"])
	assert.Equal(t, "fetcher", event["package"])
	assert.Equal(t, "WatchFetcher.Fetch", event["action"])
	assert.Equal(t, "request failed", event["error"])
	assert.Equal(t, "dQw4w9WgXcQ", event["video_key"])
	assert.Equal(t, "www.youtube.com", event["host"])
}

func TestRecordFinalBatchStats(t *testing.T) {
	recorder, buf := newRecorderWithBuffer()

	recorder.RecordFinalBatchStats("batch-1", 10, 4, 5, 1, 3*time.Second)

	event := decodeLine(t, buf)
	assert.Equal(t, "batch-1", event["batch_id"])
	assert.Equal(t, float64(10), event["total_keys"])
	assert.Equal(t, float64(4), event["cache_hits"])
	assert.Equal(t, float64(5), event["fetched"])
	assert.Equal(t, float64(1), event["failed"])
	assert.Equal(t, "batch finished", event["message"])
}
