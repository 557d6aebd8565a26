package fetcher

import (
	"context"

	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
	"github.com/rohmanhakim/vid-fetcher/pkg/failure"
	"github.com/rohmanhakim/vid-fetcher/pkg/retry"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		key normalize.VideoKey,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
