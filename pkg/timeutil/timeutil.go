package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest duration in the slice.
// Returns 0 for an empty slice. The input is never mutated.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a pseudo-random duration in [0, max).
// Returns 0 when max <= 0. The rng controls determinism; callers that
// need reproducible timing must seed it explicitly.
func ComputeJitter(max time.Duration, rng rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the delay before the next attempt:
//
//	initial * multiplier^(attempt-1), capped at maxDuration, plus jitter.
//
// attempt is 1-based; attempt=1 yields the initial duration.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	exponent := float64(attempt - 1)
	delay := float64(backoffParam.InitialDuration()) * math.Pow(backoffParam.Multiplier(), exponent)
	if delay > float64(backoffParam.MaxDuration()) {
		delay = float64(backoffParam.MaxDuration())
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
