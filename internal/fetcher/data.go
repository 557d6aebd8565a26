package fetcher

import (
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
)

// HTTP boundary

type FetchResult struct {
	key  normalize.VideoKey
	body []byte
	meta ResponseMeta
}

func (f *FetchResult) Key() normalize.VideoKey {
	return f.key
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return f.meta.transferredSizeByte
}

func (f *FetchResult) Attempts() int {
	return f.meta.attempts
}

type ResponseMeta struct {
	statusCode          int
	transferredSizeByte uint64
	attempts            int
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	key normalize.VideoKey,
	body []byte,
	statusCode int,
	attempts int,
) FetchResult {
	return FetchResult{
		key:  key,
		body: body,
		meta: ResponseMeta{
			statusCode:          statusCode,
			transferredSizeByte: uint64(len(body)),
			attempts:            attempts,
		},
	}
}
