package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/vid-fetcher/internal/build"
	"github.com/rohmanhakim/vid-fetcher/internal/config"
	"github.com/rohmanhakim/vid-fetcher/internal/metadata"
	"github.com/rohmanhakim/vid-fetcher/internal/scheduler"
)

var (
	cfgFile     string
	inputFile   string
	bypassCache bool
	maxBatch    int
	concurrency int
	cachePath   string
	userAgent   string
	timeout     time.Duration
	baseDelay   time.Duration
	jitter      time.Duration
	randomSeed  int64
	rps         float64
	maxAttempt  int
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vid-fetcher [video URL or ID]...",
	Short: "Batch fetcher for YouTube video metadata.",
	Long: `vid-fetcher resolves a batch of YouTube video URLs or bare video IDs
to their canonical metadata (title, channel, view count, duration, upload
date) and caches every fetched record locally, so repeated runs only hit
the network for videos not seen before.

Inputs may be given as arguments, via --input-file (one per line), or both.`,
	Version:       build.FullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := collectInputs(args)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			cmd.Usage()
			return fmt.Errorf("no inputs: pass video URLs/IDs as arguments or via --input-file")
		}

		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		return runBatch(cfg, inputs)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&inputFile, "input-file", "", "file with one video URL or ID per line")
	rootCmd.PersistentFlags().BoolVar(&bypassCache, "bypass-cache", false, "refetch every key even when cached")
	rootCmd.PersistentFlags().IntVar(&maxBatch, "max-batch", 0, "maximum number of keys per batch (0 for unlimited)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "number of concurrent fetch workers")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache-path", "", "path of the cache database file")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between HTTP requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().Float64Var(&rps, "rps", 0, "global requests-per-second ceiling across all workers")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "attempts per key before giving up")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log per-key progress transitions")
}

// collectInputs merges positional arguments with the lines of
// --input-file, arguments first.
func collectInputs(args []string) ([]string, error) {
	inputs := append([]string{}, args...)

	if inputFile == "" {
		return inputs, nil
	}

	file, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("error opening input file %s: %w", inputFile, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		inputs = append(inputs, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input file %s: %w", inputFile, err)
	}
	return inputs, nil
}

// InitConfigWithError reads in the config file if set, otherwise builds
// the config from CLI flag overrides on top of the defaults.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		fmt.Printf("Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	if bypassCache {
		configBuilder = configBuilder.WithBypassCache(bypassCache)
	}

	if maxBatch > 0 {
		configBuilder = configBuilder.WithMaxBatchSize(maxBatch)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if cachePath != "" {
		configBuilder = configBuilder.WithCachePath(cachePath)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if rps > 0 {
		configBuilder = configBuilder.WithRequestsPerSecond(rps)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runBatch(cfg config.Config, inputs []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	recorder := metadata.NewRecorder("cli-worker", logger)

	var progress metadata.ProgressFunc
	if verbose {
		progress = func(event metadata.ProgressEvent) {
			logger.Info().
				Str("key", event.Key).
				Str("status", string(event.Status)).
				Msg("progress")
		}
	}

	batchScheduler, schedErr := scheduler.NewScheduler(cfg, &recorder, &recorder, progress)
	if schedErr != nil {
		return fmt.Errorf("error initializing pipeline: %w", schedErr)
	}
	defer batchScheduler.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	execution, execErr := batchScheduler.ExecuteBatch(
		ctx,
		scheduler.NewBatchRequest(inputs, cfg.BypassCache()),
	)
	if execErr != nil {
		return fmt.Errorf("batch aborted: %w", execErr)
	}

	printOutcomes(execution)
	return nil
}

func printOutcomes(execution scheduler.BatchExecution) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "KEY\tSTATUS\tTITLE\tCHANNEL\tVIEWS\tDURATION\tUPLOADED")

	for _, outcome := range execution.Outcomes() {
		if !outcome.Succeeded() {
			fmt.Fprintf(writer, "%s\t%s\t%s\t\t\t\t\n",
				outcome.Key(),
				outcome.FailureKind(),
				outcome.FailureMessage(),
			)
			continue
		}

		status := "fetched"
		if outcome.FromCache() {
			status = "cached"
		}

		record := outcome.Record()
		uploaded := ""
		if !record.UploadDate().IsZero() {
			uploaded = record.UploadDate().Format("2006-01-02")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			record.Key(),
			status,
			record.Title(),
			record.ChannelName(),
			record.ViewCount(),
			(time.Duration(record.DurationSeconds()) * time.Second).String(),
			uploaded,
		)
	}

	writer.Flush()
}

func ResetFlags() {
	cfgFile = ""
	inputFile = ""
	bypassCache = false
	maxBatch = 0
	concurrency = 0
	cachePath = ""
	userAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	rps = 0
	maxAttempt = 0
	verbose = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBypassCacheForTest(bypass bool) {
	bypassCache = bypass
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetCachePathForTest(path string) {
	cachePath = path
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetMaxBatchForTest(size int) {
	maxBatch = size
}
