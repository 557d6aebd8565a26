package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/retry"
)

/*
Responsibilities

- Perform HTTP requests against the upstream watch endpoint
- Apply browser-like headers and timeouts
- Enforce a global requests-per-second ceiling across all workers
- Classify responses

Fetch semantics

- 2xx responses return the raw body; parsing happens downstream
- 404/410 mean the video is gone: terminal, no retry
- 403 means the video is private or blocked: terminal, no retry
- 429 and 5xx are retryable within the retry budget
- All fetches are logged with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

type WatchFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	watchBaseURL string
	userAgent    string
}

func NewWatchFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	watchBaseURL string,
	userAgent string,
	requestsPerSecond float64,
) WatchFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return WatchFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		rateLimiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		watchBaseURL: watchBaseURL,
		userAgent:    userAgent,
	}
}

func (w *WatchFetcher) Fetch(
	ctx context.Context,
	key normalize.VideoKey,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "WatchFetcher.Fetch"
	startTime := time.Now()

	result, attempts, err := w.fetchWithRetry(ctx, key, retryParam)

	duration := time.Since(startTime)

	var statusCode int
	if err == nil {
		statusCode = result.Code()
	}

	w.metadataSink.RecordFetch(key.String(), statusCode, duration, attempts)

	if err != nil {
		w.recordError(callerMethod, key, err)
		return FetchResult{}, err
	}

	return result, nil
}

func (w *WatchFetcher) fetchWithRetry(
	ctx context.Context,
	key normalize.VideoKey,
	retryParam retry.RetryParam,
) (FetchResult, int, failure.ClassifiedError) {
	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return w.performFetch(ctx, key)
	}

	result, attempts, retryErr := retry.Retry(ctx, retryParam, fetchTask)
	if retryErr != nil {
		// A FetchError surfaced by the task is returned directly;
		// exhausted budgets surface as a RetryError wrapping the last
		// attempt's error.
		var fetchErr *FetchError
		if errors.As(retryErr, &fetchErr) && !errors.Is(retryErr, &retry.RetryError{}) {
			return FetchResult{}, attempts, fetchErr
		}
		return FetchResult{}, attempts, retryErr
	}

	result.meta.attempts = attempts
	return result, attempts, nil
}

func (w *WatchFetcher) performFetch(
	ctx context.Context,
	key normalize.VideoKey,
) (FetchResult, failure.ClassifiedError) {
	// Global request-rate ceiling shared by all workers. Waiting here
	// counts against the request, not against the retry budget.
	if err := w.rateLimiter.Wait(ctx); err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("rate limiter wait: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	watchURL := fmt.Sprintf("%s?v=%s", w.watchBaseURL, url.QueryEscape(key.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for headerKey, value := range w.requestHeaders() {
		req.Header.Set(headerKey, value)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// cancellation is not a transport flake; stop retrying
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("request cancelled: %v", err),
				Retryable: false,
				Cause:     ErrCauseTimeout,
			}
		}
		// Network/transport errors are retryable
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("video does not exist: %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseVideoNotFound,
		}

	case resp.StatusCode == http.StatusForbidden:
		return FetchResult{}, &FetchError{
			Message:   "access forbidden (403)",
			Retryable: false,
			Cause:     ErrCauseVideoForbidden,
		}

	case resp.StatusCode >= 400:
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseRequestRejected,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	return FetchResult{
		key:  key,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(body)),
		},
	}, nil
}

func (w *WatchFetcher) recordError(callerMethod string, key normalize.VideoKey, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown

	var fetchError *FetchError
	var retryError *retry.RetryError
	if errors.As(err, &fetchError) {
		cause = mapFetchErrorToMetadataCause(fetchError)
	} else if errors.As(err, &retryError) {
		cause = metadata.CauseNetworkFailure
	}

	w.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, key.String()),
		},
	)
}

func (w *WatchFetcher) requestHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      w.userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}
