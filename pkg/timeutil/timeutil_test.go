package timeutil_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rohmanhakim/vid-fetcher/pkg/timeutil"
)

func TestMaxDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		want      time.Duration
	}{
		{
			name:      "empty slice",
			durations: nil,
			want:      0,
		},
		{
			name:      "single element",
			durations: []time.Duration{3 * time.Second},
			want:      3 * time.Second,
		},
		{
			name:      "largest in middle",
			durations: []time.Duration{time.Second, 5 * time.Second, 2 * time.Second},
			want:      5 * time.Second,
		},
		{
			name:      "all zero",
			durations: []time.Duration{0, 0},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeutil.MaxDuration(tt.durations)
			if got != tt.want {
				t.Errorf("MaxDuration(%v) = %v, want %v", tt.durations, got, tt.want)
			}
		})
	}
}

func TestComputeJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("zero max returns zero", func(t *testing.T) {
		if got := timeutil.ComputeJitter(0, *rng); got != 0 {
			t.Errorf("ComputeJitter(0) = %v, want 0", got)
		}
	})

	t.Run("negative max returns zero", func(t *testing.T) {
		if got := timeutil.ComputeJitter(-time.Second, *rng); got != 0 {
			t.Errorf("ComputeJitter(-1s) = %v, want 0", got)
		}
	})

	t.Run("result stays within bound", func(t *testing.T) {
		max := 500 * time.Millisecond
		for i := 0; i < 100; i++ {
			got := timeutil.ComputeJitter(max, *rng)
			if got < 0 || got >= max {
				t.Fatalf("ComputeJitter(%v) = %v, want in [0, %v)", max, got, max)
			}
		}
	})

	t.Run("same seed produces same sequence", func(t *testing.T) {
		first := timeutil.ComputeJitter(time.Second, *rand.New(rand.NewSource(7)))
		second := timeutil.ComputeJitter(time.Second, *rand.New(rand.NewSource(7)))
		if first != second {
			t.Errorf("same seed gave %v and %v", first, second)
		}
	})
}

func TestExponentialBackoffDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	backoffParam := timeutil.NewBackoffParam(100*time.Millisecond, 2.0, time.Second)

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{
			name:    "first attempt uses initial duration",
			attempt: 1,
			want:    100 * time.Millisecond,
		},
		{
			name:    "second attempt doubles",
			attempt: 2,
			want:    200 * time.Millisecond,
		},
		{
			name:    "third attempt doubles again",
			attempt: 3,
			want:    400 * time.Millisecond,
		},
		{
			name:    "capped at max duration",
			attempt: 10,
			want:    time.Second,
		},
		{
			name:    "attempt below one clamps to initial",
			attempt: 0,
			want:    100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeutil.ExponentialBackoffDelay(tt.attempt, 0, *rng, backoffParam)
			if got != tt.want {
				t.Errorf("ExponentialBackoffDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}

	t.Run("jitter adds at most the jitter bound", func(t *testing.T) {
		jitter := 50 * time.Millisecond
		got := timeutil.ExponentialBackoffDelay(1, jitter, *rng, backoffParam)
		base := 100 * time.Millisecond
		if got < base || got >= base+jitter {
			t.Errorf("delay with jitter = %v, want in [%v, %v)", got, base, base+jitter)
		}
	})
}

func TestDurationPtr(t *testing.T) {
	d := 3 * time.Second
	ptr := timeutil.DurationPtr(d)
	if ptr == nil || *ptr != d {
		t.Errorf("DurationPtr(%v) = %v", d, ptr)
	}
}
