package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Hard bounds for the fetch concurrency limit. The limit is a ceiling
// enforced by the worker pool, not a hint; values outside this range are
// clamped at Build time.
const (
	MinConcurrency = 1
	MaxConcurrency = 50
)

type Config struct {
	//===============
	// Batch
	//===============
	// Serve every key from the network even when a cache entry exists.
	bypassCache bool
	// Maximum number of raw inputs accepted per batch. 0 means unlimited.
	maxBatchSize int

	//===============
	// Politeness
	//===============
	// Maximum number of fetch worker goroutines running concurrently;
	// it does not control OS threads or CPU parallelism.
	concurrency int
	// Minimum waiting time enforced between two requests to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Global ceiling on upstream requests per second across all workers.
	requestsPerSecond float64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Base URL of the upstream watch endpoint. Overridable for tests.
	watchBaseURL string

	//===============
	// Cache
	//===============
	// Path of the sqlite cache database file
	cachePath string
}

type configDTO struct {
	BypassCache            bool          `json:"bypassCache,omitempty"`
	MaxBatchSize           int           `json:"maxBatchSize,omitempty"`
	Concurrency            int           `json:"concurrency,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	RequestsPerSecond      float64       `json:"requestsPerSecond,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	WatchBaseURL           string        `json:"watchBaseUrl,omitempty"`
	CachePath              string        `json:"cachePath,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	cfg.bypassCache = dto.BypassCache

	if dto.MaxBatchSize != 0 {
		cfg.maxBatchSize = dto.MaxBatchSize
	}
	if dto.Concurrency != 0 {
		cfg.concurrency = dto.Concurrency
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.RequestsPerSecond != 0 {
		cfg.requestsPerSecond = dto.RequestsPerSecond
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.WatchBaseURL != "" {
		cfg.watchBaseURL = dto.WatchBaseURL
	}
	if dto.CachePath != "" {
		cfg.cachePath = dto.CachePath
	}

	return clampConcurrency(cfg), nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
// Defaults mirror the behavior of a polite single-host batch fetcher:
// modest concurrency, one-second base delay, bounded retry budget.
func WithDefault() *Config {
	defaultConfig := Config{
		bypassCache:            false,
		maxBatchSize:           0,
		concurrency:            5,
		baseDelay:              time.Second,
		jitter:                 time.Millisecond * 500,
		randomSeed:             time.Now().UnixNano(),
		requestsPerSecond:      5,
		maxAttempt:             3,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                time.Second * 15,
		userAgent:              "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
		watchBaseURL:           "https://www.youtube.com/watch",
		cachePath:              "youtube_data_cache.db",
	}
	return &defaultConfig
}

func (c *Config) WithBypassCache(bypass bool) *Config {
	c.bypassCache = bypass
	return c
}

func (c *Config) WithMaxBatchSize(size int) *Config {
	c.maxBatchSize = size
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithRequestsPerSecond(rps float64) *Config {
	c.requestsPerSecond = rps
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithWatchBaseURL(baseURL string) *Config {
	c.watchBaseURL = baseURL
	return c
}

func (c *Config) WithCachePath(path string) *Config {
	c.cachePath = path
	return c
}

func (c *Config) Build() (Config, error) {
	if c.cachePath == "" {
		return Config{}, fmt.Errorf("%w: cachePath cannot be empty", ErrInvalidConfig)
	}
	if c.watchBaseURL == "" {
		return Config{}, fmt.Errorf("%w: watchBaseUrl cannot be empty", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	return clampConcurrency(*c), nil
}

func clampConcurrency(cfg Config) Config {
	if cfg.concurrency < MinConcurrency {
		cfg.concurrency = MinConcurrency
	}
	if cfg.concurrency > MaxConcurrency {
		cfg.concurrency = MaxConcurrency
	}
	return cfg
}

func (c Config) BypassCache() bool {
	return c.bypassCache
}

func (c Config) MaxBatchSize() int {
	return c.maxBatchSize
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) RequestsPerSecond() float64 {
	return c.requestsPerSecond
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) WatchBaseURL() string {
	return c.watchBaseURL
}

func (c Config) CachePath() string {
	return c.cachePath
}
