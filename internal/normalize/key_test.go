package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
)

func TestExtractKeyAcceptedShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want normalize.VideoKey
	}{
		{
			name: "bare id",
			raw:  "dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "bare id with surrounding whitespace",
			raw:  "  dQw4w9WgXcQ\t",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch url",
			raw:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch url without scheme",
			raw:  "youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch url with extra query params",
			raw:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "mobile subdomain",
			raw:  "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "music subdomain",
			raw:  "https://music.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "short link",
			raw:  "https://youtu.be/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "short link with query",
			raw:  "https://youtu.be/dQw4w9WgXcQ?si=abc",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "embed path",
			raw:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "shorts path",
			raw:  "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "live path",
			raw:  "https://www.youtube.com/live/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "legacy v path",
			raw:  "https://www.youtube.com/v/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "path with trailing segment",
			raw:  "https://www.youtube.com/embed/dQw4w9WgXcQ/extra",
			want: "dQw4w9WgXcQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := normalize.ExtractKey(tt.raw)
			require.Nil(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestExtractKeyRejectedShapes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCause normalize.NormalizeErrorCause
	}{
		{
			name:      "empty input",
			raw:       "",
			wantCause: normalize.ErrCauseEmptyInput,
		},
		{
			name:      "whitespace only",
			raw:       "   \t ",
			wantCause: normalize.ErrCauseEmptyInput,
		},
		{
			name:      "unrelated host",
			raw:       "https://vimeo.com/12345678901",
			wantCause: normalize.ErrCauseUnrecognizedShape,
		},
		{
			name:      "watch url without v param",
			raw:       "https://www.youtube.com/watch?list=PL123",
			wantCause: normalize.ErrCauseUnrecognizedShape,
		},
		{
			name:      "channel page",
			raw:       "https://www.youtube.com/@somechannel",
			wantCause: normalize.ErrCauseUnrecognizedShape,
		},
		{
			name:      "key too short",
			raw:       "https://www.youtube.com/watch?v=short",
			wantCause: normalize.ErrCauseMalformedKey,
		},
		{
			name:      "key with invalid characters",
			raw:       "https://youtu.be/dQw4w9WgXc!",
			wantCause: normalize.ErrCauseMalformedKey,
		},
		{
			name:      "bare string that is not an id",
			raw:       "not a video",
			wantCause: normalize.ErrCauseUnrecognizedShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalize.ExtractKey(tt.raw)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCause, err.Cause)
		})
	}
}

func TestNormalizeBatchDeduplicatesPreservingOrder(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://youtu.be/bbbbbbbbbbb",
		"aaaaaaaaaaa", // same video as the first line, different shape
		"",
		"https://www.youtube.com/shorts/ccccccccccc",
		"bbbbbbbbbbb",
	}

	resolutions := normalize.NormalizeBatch(inputs)

	require.Len(t, resolutions, 3)
	assert.Equal(t, normalize.VideoKey("aaaaaaaaaaa"), resolutions[0].Key())
	assert.Equal(t, normalize.VideoKey("bbbbbbbbbbb"), resolutions[1].Key())
	assert.Equal(t, normalize.VideoKey("ccccccccccc"), resolutions[2].Key())
}

func TestNormalizeBatchKeepsInvalidInputsInPlace(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"not a video",
		"bbbbbbbbbbb",
	}

	resolutions := normalize.NormalizeBatch(inputs)

	require.Len(t, resolutions, 3)
	assert.Nil(t, resolutions[0].Err())
	require.NotNil(t, resolutions[1].Err())
	assert.Equal(t, "not a video", resolutions[1].Raw())
	assert.Nil(t, resolutions[2].Err())
}

func TestNormalizeBatchEmptyInput(t *testing.T) {
	assert.Empty(t, normalize.NormalizeBatch(nil))
	assert.Empty(t, normalize.NormalizeBatch([]string{"", "  "}))
}
