package limiter

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/vid-fetcher/pkg/timeutil"
)

// RateLimiter
// Specialized component to manage politeness delays toward the upstream host.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Compute the final delay for each hostname given various factors
// - Escalate the delay when the host signals rate limiting, and relax it
//   again after a successful fetch
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings:  make(map[string]hostTiming),
		backoffParam: timeutil.NewBackoffParam(time.Second, 2.0, 30*time.Second),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Backoff escalates the delay for the given host.
// Each call increments the backoff counter; the resulting delay grows
// exponentially up to the configured cap.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++
	timing.backoffDelay = r.backoffDelayLocked(timing.backoffCount)
	r.hostTimings[host] = timing
}

// backoffDelayLocked computes exponential backoff based on count.
// Does NOT take lock; caller must hold r.mu.
func (r *ConcurrentRateLimiter) backoffDelayLocked(backoffCount int) time.Duration {
	delay := timeutil.ExponentialBackoffDelay(
		backoffCount,
		0, // jitter applied once at resolve time
		rand.Rand{},
		r.backoffParam,
	)
	return delay
}

// ResetBackoff clears the backoff state for the given host.
// Called after a successful request.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.hostTimings[host]
	if !exists {
		return
	}
	timing.backoffCount = 0
	timing.backoffDelay = 0
	r.hostTimings[host] = timing
}

// MarkLastFetchAsNow records that the host was just fetched.
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

// ResolveDelay computes the remaining wait before the host may be
// fetched again:
//
//	FinalDelay = max(BaseDelay, BackoffDelay) + Jitter - elapsed since last fetch
//
// A host that was never fetched gets no delay.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	// copy needed state under read lock, then compute without holding r.mu
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})
	finalDelay += r.computeJitter(jitter)

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// computeJitter protects the shared rng with its own lock so concurrent
// workers resolving delays do not race on the generator.
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return timeutil.ComputeJitter(max, *r.rng)
}
