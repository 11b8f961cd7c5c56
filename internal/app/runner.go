package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storyrank/infrastructure/llm"
	"storyrank/infrastructure/metrics"
	"storyrank/infrastructure/oracle"
	"storyrank/internal/domain"
	"storyrank/internal/generate"
	"storyrank/internal/ports"
	"storyrank/internal/runlog"
	"storyrank/internal/tournament"
)

// Runner executes one complete generate-and-rank run: seed the candidate
// pool (live generation or an existing idea log), run the tournament, print
// the ranking, and persist every log the run produces.
type Runner struct {
	config  Config
	logger  *zap.Logger
	metrics ports.MetricsCollector
}

// NewRunner validates the configuration and prepares a Runner.
func NewRunner(config Config, logger *zap.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:  config,
		logger:  logger,
		metrics: metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer),
	}, nil
}

// Run executes the pipeline and writes the final ranking to stdout as
// score<TAB>candidate lines, highest score first.
func (r *Runner) Run(ctx context.Context, stdout io.Writer) error {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))

	client, err := r.buildClient()
	if err != nil {
		return err
	}

	ideaSink, err := runlog.NewWriterInDir(r.config.OutputDir, runlog.IdeasFile)
	if err != nil {
		return err
	}
	defer ideaSink.Close()
	decisionSink, err := runlog.NewWriterInDir(r.config.OutputDir, runlog.DecisionsFile)
	if err != nil {
		return err
	}
	defer decisionSink.Close()
	scoreSink, err := runlog.NewWriterInDir(r.config.OutputDir, runlog.ScoresFile)
	if err != nil {
		return err
	}
	defer scoreSink.Close()
	finalSink, err := runlog.NewWriterInDir(r.config.OutputDir, runlog.FinalFile)
	if err != nil {
		return err
	}
	defer finalSink.Close()

	ideas, err := r.seedIdeas(ctx, client, ideaSink, runID, logger)
	if err != nil {
		return err
	}
	candidates := domain.NewCandidates(ideas)
	logger.Info("candidate pool ready", zap.Int("candidates", len(candidates)))

	judge, err := oracle.NewChoiceOracle(client, r.config.Oracle,
		oracle.WithDecisionSink(decisionSink),
		oracle.WithMetrics(r.metrics),
		oracle.WithLogger(logger),
		oracle.WithRunID(runID),
	)
	if err != nil {
		return err
	}

	ranker, err := tournament.NewRanker(judge, r.config.Tournament,
		tournament.WithScoreSink(scoreSink),
		tournament.WithMetrics(r.metrics),
		tournament.WithLogger(logger),
		tournament.WithRunID(runID),
	)
	if err != nil {
		return err
	}

	ranking, err := ranker.Rank(ctx, candidates)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	for _, entry := range ranking {
		fmt.Fprintf(stdout, "%d\t%s\n", entry.Score, entry.Candidate.Text)
	}

	if err := finalSink.Append(runlog.FinalRankingRecord{
		RunID:   runID,
		Time:    time.Now().UTC(),
		Ranking: ranking,
	}); err != nil {
		logger.Warn("failed to append final ranking record", zap.Error(err))
	}

	logger.Info("run complete", zap.Int("ranked", len(ranking)))
	return nil
}

// buildClient assembles the judge client with the configured middleware
// chain: tracing outermost, then metrics, rate limiting, timeout, and
// transport retries closest to the provider.
func (r *Runner) buildClient() (ports.LLMClient, error) {
	var middleware []llm.Middleware
	middleware = append(middleware, llm.TracingMiddleware(), llm.MetricsMiddleware(r.metrics))

	if r.config.RequestsPerSecond > 0 {
		burst := r.config.Burst
		if burst < 1 {
			burst = 1
		}
		middleware = append(middleware, llm.RateLimitMiddleware(rate.Limit(r.config.RequestsPerSecond), burst))
	}
	if r.config.RequestTimeout > 0 {
		middleware = append(middleware, llm.TimeoutMiddleware(r.config.RequestTimeout))
	}
	if r.config.TransportRetries > 0 {
		middleware = append(middleware, llm.RetryMiddleware(r.config.TransportRetries,
			llm.DefaultRetryBaseDelay, llm.DefaultRetryMaxDelay))
	}

	client, err := llm.NewClient(r.config.Provider, llm.ClientConfig{
		APIKey:     r.config.APIKey,
		Model:      r.config.Model,
		BaseURL:    r.config.Host,
		Middleware: middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build judge client: %w", err)
	}
	return client, nil
}

// seedIdeas produces the raw candidate strings, either by replaying an
// existing idea source log or by live generation.
func (r *Runner) seedIdeas(
	ctx context.Context,
	client ports.LLMClient,
	ideaSink ports.RecordSink,
	runID string,
	logger *zap.Logger,
) ([]string, error) {
	if r.config.IdeasFromLog != "" {
		batches, err := runlog.ReadIdeaBatches(r.config.IdeasFromLog)
		if err != nil {
			return nil, err
		}
		ideas := runlog.CollectIdeas(batches)
		logger.Info("loaded ideas from log",
			zap.String("path", r.config.IdeasFromLog),
			zap.Int("batches", len(batches)),
			zap.Int("ideas", len(ideas)))
		return ideas, nil
	}

	generator, err := generate.NewGenerator(client, r.config.Generation,
		generate.WithIdeaSink(ideaSink),
		generate.WithLogger(logger),
		generate.WithRunID(runID),
	)
	if err != nil {
		return nil, err
	}
	return generator.GenerateN(ctx, r.config.TotalIdeas)
}
