package scheduler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/vid-fetcher/internal/config"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/scheduler"
)

// watchServer serves minimal watch pages and counts hits per key.
type watchServer struct {
	mu          sync.Mutex
	hits        map[string]int
	rateLimited map[string]int
	server      *httptest.Server
}

func newWatchServer() *watchServer {
	ws := &watchServer{
		hits:        make(map[string]int),
		rateLimited: make(map[string]int),
	}
	ws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("v")

		ws.mu.Lock()
		ws.hits[key]++
		remaining := ws.rateLimited[key]
		if remaining > 0 {
			ws.rateLimited[key]--
		}
		ws.mu.Unlock()

		if remaining > 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if key == "" || key == "gonegonegon" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		fmt.Fprintf(w, `<html><body><script>var ytInitialPlayerResponse = {
			"videoDetails": {
				"videoId": %[1]q,
				"title": "Video %[1]s",
				"lengthSeconds": "120",
				"author": "Channel of %[1]s",
				"viewCount": "1000"
			},
			"microformat": {"playerMicroformatRenderer": {"uploadDate": "2020-01-02"}}
		};</script></body></html>`, key)
	}))
	return ws
}

func (ws *watchServer) hitCount(key string) int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.hits[key]
}

func (ws *watchServer) rateLimitNext(key string, times int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.rateLimited[key] = times
}

func configForPipelineTest(t *testing.T, ws *watchServer) config.Config {
	t.Helper()
	cfg, err := config.WithDefault().
		WithWatchBaseURL(ws.server.URL + "/watch").
		WithCachePath(filepath.Join(t.TempDir(), "cache.db")).
		WithBaseDelay(time.Nanosecond).
		WithJitter(0).
		WithRandomSeed(1).
		WithRequestsPerSecond(1000).
		WithMaxAttempt(5).
		WithBackoffInitialDuration(time.Millisecond).
		WithBackoffMaxDuration(5 * time.Millisecond).
		WithConcurrency(3).
		WithTimeout(5 * time.Second).
		Build()
	require.NoError(t, err)
	return cfg
}

func TestPipelineFetchThenServeFromCache(t *testing.T) {
	ws := newWatchServer()
	defer ws.server.Close()

	cfg := configForPipelineTest(t, ws)
	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &metadata.NoopSink{}, &metadata.NoopSink{}, nil)
	require.Nil(t, schedErr)
	defer batchScheduler.Close()

	ctx := context.Background()

	first, err := batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"bbbbbbbbbbb",
	}, false))
	require.Nil(t, err)

	outcomes := first.Outcomes()
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		require.True(t, outcome.Succeeded(), "outcome for %s: %s", outcome.Key(), outcome.FailureMessage())
		assert.False(t, outcome.FromCache())
	}
	assert.Equal(t, "Video aaaaaaaaaaa", outcomes[0].Record().Title())
	assert.Equal(t, "Channel of bbbbbbbbbbb", outcomes[1].Record().ChannelName())
	assert.Equal(t, uint64(1000), outcomes[0].Record().ViewCount())

	// second batch: the two known keys come from cache, only C is fetched
	second, err := batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{
		"aaaaaaaaaaa",
		"bbbbbbbbbbb",
		"ccccccccccc",
	}, false))
	require.Nil(t, err)

	outcomes = second.Outcomes()
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].FromCache())
	assert.True(t, outcomes[1].FromCache())
	assert.False(t, outcomes[2].FromCache())

	assert.Equal(t, 1, ws.hitCount("aaaaaaaaaaa"))
	assert.Equal(t, 1, ws.hitCount("bbbbbbbbbbb"))
	assert.Equal(t, 1, ws.hitCount("ccccccccccc"))
}

func TestPipelineBypassCacheRefetches(t *testing.T) {
	ws := newWatchServer()
	defer ws.server.Close()

	cfg := configForPipelineTest(t, ws)
	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &metadata.NoopSink{}, &metadata.NoopSink{}, nil)
	require.Nil(t, schedErr)
	defer batchScheduler.Close()

	ctx := context.Background()

	_, err := batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{"aaaaaaaaaaa"}, false))
	require.Nil(t, err)

	execution, err := batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{"aaaaaaaaaaa"}, true))
	require.Nil(t, err)

	require.Len(t, execution.Outcomes(), 1)
	assert.False(t, execution.Outcomes()[0].FromCache())
	assert.Equal(t, 2, ws.hitCount("aaaaaaaaaaa"))
}

func TestPipelineRetriesThroughRateLimiting(t *testing.T) {
	ws := newWatchServer()
	defer ws.server.Close()

	ws.rateLimitNext("aaaaaaaaaaa", 2)

	cfg := configForPipelineTest(t, ws)
	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &metadata.NoopSink{}, &metadata.NoopSink{}, nil)
	require.Nil(t, schedErr)
	defer batchScheduler.Close()

	execution, err := batchScheduler.ExecuteBatch(
		context.Background(),
		scheduler.NewBatchRequest([]string{"aaaaaaaaaaa"}, false),
	)
	require.Nil(t, err)

	outcomes := execution.Outcomes()
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Succeeded(), outcomes[0].FailureMessage())
	assert.Equal(t, 3, outcomes[0].Attempts(), "two rejections and one success")
	assert.Equal(t, 3, ws.hitCount("aaaaaaaaaaa"))
}

func TestPipelineMissingVideoSettlesAsNotFound(t *testing.T) {
	ws := newWatchServer()
	defer ws.server.Close()

	cfg := configForPipelineTest(t, ws)
	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &metadata.NoopSink{}, &metadata.NoopSink{}, nil)
	require.Nil(t, schedErr)
	defer batchScheduler.Close()

	execution, err := batchScheduler.ExecuteBatch(
		context.Background(),
		scheduler.NewBatchRequest([]string{"gonegonegon", "aaaaaaaaaaa"}, false),
	)
	require.Nil(t, err)

	outcomes := execution.Outcomes()
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Succeeded())
	assert.True(t, outcomes[1].Succeeded(), "one missing video must not sink the batch")

	// the 404 must not be retried or cached
	assert.Equal(t, 1, ws.hitCount("gonegonegon"))
}

func TestPipelineProgressEvents(t *testing.T) {
	ws := newWatchServer()
	defer ws.server.Close()

	var mu sync.Mutex
	events := make(map[string][]metadata.ProgressStatus)
	progress := func(event metadata.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events[event.Key] = append(events[event.Key], event.Status)
	}

	cfg := configForPipelineTest(t, ws)
	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &metadata.NoopSink{}, &metadata.NoopSink{}, progress)
	require.Nil(t, schedErr)
	defer batchScheduler.Close()

	ctx := context.Background()

	_, err := batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{"aaaaaaaaaaa"}, false))
	require.Nil(t, err)

	_, err = batchScheduler.ExecuteBatch(ctx, scheduler.NewBatchRequest([]string{"aaaaaaaaaaa"}, false))
	require.Nil(t, err)

	mu.Lock()
	defer mu.Unlock()

	statuses := events["aaaaaaaaaaa"]
	assert.Equal(t, []metadata.ProgressStatus{
		metadata.StatusPending,
		metadata.StatusFetching,
		metadata.StatusSuccess,
		metadata.StatusPending,
		metadata.StatusCacheHit,
	}, statuses)
}
