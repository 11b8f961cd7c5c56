// Command storyrank generates short-story prompts with a language model and
// ranks them through a tournament of small-group judgments, printing the
// final ranking as score<TAB>prompt lines.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyrank/internal/app"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath   string
		verbose      bool
		provider     string
		host         string
		model        string
		apiKey       string
		outputDir    string
		totalIdeas   int
		ideasFromLog string
		batchSize    int
		groupSize    int
		maxRetries   int
		concurrency  int
		rps          float64
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:          "storyrank",
		Short:        "Generate and tournament-rank short-story prompts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags the user actually set override the file and defaults.
			flags := cmd.Flags()
			if flags.Changed("provider") {
				config.Provider = provider
			}
			if flags.Changed("host") {
				config.Host = host
			}
			if flags.Changed("model") {
				config.Model = model
			}
			if flags.Changed("api-key") {
				config.APIKey = apiKey
			}
			if flags.Changed("out") {
				config.OutputDir = outputDir
			}
			if flags.Changed("ideas") {
				config.TotalIdeas = totalIdeas
			}
			if flags.Changed("ideas-from-log") {
				config.IdeasFromLog = ideasFromLog
				config.TotalIdeas = 0
			}
			if flags.Changed("batch-size") {
				config.Generation.BatchSize = batchSize
			}
			if flags.Changed("group-size") {
				config.Tournament.GroupSize = groupSize
			}
			if flags.Changed("max-retries") {
				config.Tournament.MaxRetries = maxRetries
			}
			if flags.Changed("concurrency") {
				config.Tournament.MaxConcurrency = concurrency
			}
			if flags.Changed("rps") {
				config.RequestsPerSecond = rps
			}
			if flags.Changed("timeout") {
				config.RequestTimeout = timeout
			}
			if config.APIKey == "" {
				config.APIKey = apiKeyFromEnv(config.Provider)
			}

			logger, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			runner, err := app.NewRunner(config, logger)
			if err != nil {
				return err
			}
			return runner.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	defaults := app.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&provider, "provider", defaults.Provider, "Judge provider: openai, anthropic, or google")
	flags.StringVar(&host, "host", defaults.Host, "Judge endpoint override (e.g. a local Ollama server)")
	flags.StringVar(&model, "model", defaults.Model, "Judge and generation model")
	flags.StringVar(&apiKey, "api-key", "", "Provider API key (defaults to the provider's env var)")
	flags.StringVar(&outputDir, "out", defaults.OutputDir, "Directory for run logs")
	flags.IntVarP(&totalIdeas, "ideas", "i", defaults.TotalIdeas, "Number of ideas to generate")
	flags.StringVar(&ideasFromLog, "ideas-from-log", "", "Seed candidates from an existing ideas.log instead of generating")
	flags.IntVar(&batchSize, "batch-size", defaults.Generation.BatchSize, "Ideas requested per generation call")
	flags.IntVar(&groupSize, "group-size", defaults.Tournament.GroupSize, "Maximum candidates judged together")
	flags.IntVar(&maxRetries, "max-retries", defaults.Tournament.MaxRetries, "Oracle attempts per group before elimination")
	flags.IntVar(&concurrency, "concurrency", defaults.Tournament.MaxConcurrency, "Groups judged in parallel per round")
	flags.Float64Var(&rps, "rps", 0, "Judge requests per second (0 disables rate limiting)")
	flags.DurationVar(&timeout, "timeout", 0, "Per-request judge timeout (0 disables)")
	cmd.MarkFlagsMutuallyExclusive("ideas", "ideas-from-log")

	return cmd
}

// apiKeyFromEnv resolves the conventional environment variable for a provider.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "google":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// buildLogger creates a production zap logger, at debug level when verbose.
func buildLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return config.Build()
}
