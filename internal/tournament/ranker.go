// Package tournament reduces a pool of candidates to a fully-scored ranking
// through repeated rounds of small-group judgments. Each round shuffles the
// surviving candidates, partitions them into groups, asks the oracle to pick
// one winner per group, and carries the winners forward until at most one
// candidate remains.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storyrank/internal/domain"
	"storyrank/internal/ports"
	"storyrank/internal/runlog"
)

// Default configuration values.
const (
	// DefaultGroupSize is the maximum number of candidates judged together.
	DefaultGroupSize = 4
	// DefaultMaxRetries bounds how often the same group is re-posed to the
	// oracle after a no-decision before its members are eliminated.
	DefaultMaxRetries = 5
	// DefaultMaxConcurrency evaluates groups sequentially, matching the
	// single-threaded reference behavior.
	DefaultMaxConcurrency = 1
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config defines the tunable parameters of a tournament.
type Config struct {
	// GroupSize is the maximum group size passed to the oracle per decision.
	GroupSize int `yaml:"group_size" json:"group_size" validate:"required,min=2,max=32"`

	// MaxRetries is the number of oracle attempts per group. Every attempt
	// re-poses the same group; after the last no-decision the group is
	// eliminated without a winner.
	MaxRetries int `yaml:"max_retries" json:"max_retries" validate:"required,min=1,max=100"`

	// MaxConcurrency bounds how many groups of one round are judged in
	// parallel. Groups are independent, so concurrency does not change the
	// scoring outcome, only throughput against the judge.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"required,min=1,max=64"`
}

// DefaultConfig returns the reference tournament parameters.
func DefaultConfig() Config {
	return Config{
		GroupSize:      DefaultGroupSize,
		MaxRetries:     DefaultMaxRetries,
		MaxConcurrency: DefaultMaxConcurrency,
	}
}

// Ranker runs single-elimination tournaments over candidate pools.
// It owns the score table and active set exclusively for the duration of
// one Rank call; the oracle is its only external dependency.
type Ranker struct {
	oracle  ports.Oracle
	config  Config
	runID   string
	scores  ports.RecordSink
	metrics ports.MetricsCollector
	logger  *zap.Logger
	rng     *rand.Rand
}

// Option customizes a Ranker.
type Option func(*Ranker)

// WithScoreSink attaches an append-only sink receiving one
// runlog.ScoreSnapshotRecord after every completed round.
func WithScoreSink(sink ports.RecordSink) Option {
	return func(r *Ranker) { r.scores = sink }
}

// WithMetrics attaches a metrics collector for round and group counters.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(r *Ranker) { r.metrics = collector }
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Ranker) { r.logger = logger }
}

// WithRunID stamps score snapshots with the given run identifier.
func WithRunID(runID string) Option {
	return func(r *Ranker) { r.runID = runID }
}

// WithRand injects the shuffle source, making round composition
// reproducible in tests. The default is seeded from the current time.
func WithRand(rng *rand.Rand) Option {
	return func(r *Ranker) { r.rng = rng }
}

// NewRanker creates a Ranker with the given oracle and configuration.
func NewRanker(oracle ports.Oracle, config Config, opts ...Option) (*Ranker, error) {
	if oracle == nil {
		return nil, fmt.Errorf("oracle cannot be nil: %w", domain.ErrInvalidConfiguration)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	r := &Ranker{
		oracle: oracle,
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		// #nosec G404 - shuffle order only breaks positional bias, it is not security sensitive
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r, nil
}

// Rank reduces the candidate pool to a complete ranking.
//
// Every input candidate appears in the result exactly once, including ones
// eliminated in round 1 with score 0. An empty pool yields an empty ranking;
// a single candidate is returned with score 0 and zero oracle calls.
// Transport-level oracle failures abort the run; exhausted no-decision
// retries only eliminate the affected group.
func (r *Ranker) Rank(ctx context.Context, candidates []domain.Candidate) (domain.Ranking, error) {
	table := domain.NewScoreTable(candidates)
	if table.Len() <= 1 {
		return table.Ranking(), nil
	}

	active := make([]domain.Candidate, len(candidates))
	copy(active, candidates)

	round := 0
	for len(active) > 1 {
		round++
		r.logger.Info("starting round",
			zap.Int("round", round),
			zap.Int("active", len(active)),
			zap.Int("total", table.Len()))

		// Shuffling each round breaks any positional bias the judge might
		// have, such as favoring item 1.
		r.rng.Shuffle(len(active), func(i, j int) {
			active[i], active[j] = active[j], active[i]
		})

		groups := partition(active, r.config.GroupSize)
		winners, err := r.playRound(ctx, groups)
		if err != nil {
			return nil, fmt.Errorf("round %d failed: %w", round, err)
		}

		for _, w := range winners {
			if !table.Increment(w.ID) {
				// Impossible with correct construction; skip the increment
				// and keep the run alive.
				r.logger.Warn("winner missing from score table",
					zap.String("candidate", w.ID))
			}
		}
		active = winners

		r.snapshotScores(round, table, len(active))
		r.countRound(round, len(groups), len(winners))
		r.logger.Info("round complete",
			zap.Int("round", round),
			zap.Int("advancing", len(winners)))
	}

	return table.Ranking(), nil
}

// playRound judges every group and returns the winners in group order.
// Groups that exhaust their retries contribute no winner. Groups are
// independent, so they may be judged concurrently; all score mutations
// happen in the caller after this returns.
func (r *Ranker) playRound(ctx context.Context, groups [][]domain.Candidate) ([]domain.Candidate, error) {
	results := make([]*domain.Candidate, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.MaxConcurrency)

	for i, group := range groups {
		g.Go(func() error {
			winner, err := r.judgeGroup(gctx, group)
			if err != nil {
				return err
			}
			results[i] = winner
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	winners := make([]domain.Candidate, 0, len(groups))
	for _, w := range results {
		if w != nil {
			winners = append(winners, *w)
		}
	}
	return winners, nil
}

// judgeGroup resolves one group to its winner, or to nil when the oracle
// exhausts all retries without a decision. A single-member group advances
// without consulting the oracle.
func (r *Ranker) judgeGroup(ctx context.Context, group []domain.Candidate) (*domain.Candidate, error) {
	if len(group) == 1 {
		r.countGroup("auto_advance")
		return &group[0], nil
	}

	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		index, err := r.oracle.Pick(ctx, group)
		if err == nil {
			r.countGroup("decided")
			return &group[index], nil
		}
		if !errors.Is(err, domain.ErrNoDecision) {
			return nil, err
		}
		r.logger.Debug("no winner picked, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.config.MaxRetries))
	}

	// Accepted data loss: the whole group is eliminated without a score
	// increment, recorded here so the anomaly leaves a trace.
	r.countGroup("eliminated")
	ids := make([]string, len(group))
	for i, c := range group {
		ids[i] = c.ID
	}
	r.logger.Warn("group eliminated after exhausting retries",
		zap.Strings("candidates", ids),
		zap.Int("retries", r.config.MaxRetries))
	return nil, nil
}

// snapshotScores appends the full current score table to the snapshot log.
// Snapshot loss is non-fatal.
func (r *Ranker) snapshotScores(round int, table *domain.ScoreTable, active int) {
	if r.scores == nil {
		return
	}
	record := runlog.ScoreSnapshotRecord{
		RunID:  r.runID,
		Time:   time.Now().UTC(),
		Round:  round,
		Active: active,
		Scores: table.Snapshot(),
	}
	if err := r.scores.Append(record); err != nil {
		r.logger.Warn("failed to append score snapshot", zap.Error(err))
	}
}

func (r *Ranker) countRound(round, groups, winners int) {
	if r.metrics == nil {
		return
	}
	labels := map[string]string{}
	r.metrics.RecordCounter("tournament_rounds_total", 1, labels)
	r.metrics.RecordCounter("tournament_groups_total", float64(groups), labels)
	r.metrics.RecordCounter("tournament_winners_total", float64(winners), labels)
}

func (r *Ranker) countGroup(outcome string) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordCounter("tournament_group_outcomes_total", 1, map[string]string{"outcome": outcome})
}

// partition splits the candidates into contiguous groups of at most size
// members. Every group has at least one member; only the final group may be
// smaller than size.
func partition(candidates []domain.Candidate, size int) [][]domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	groups := make([][]domain.Candidate, 0, (len(candidates)+size-1)/size)
	for start := 0; start < len(candidates); start += size {
		end := start + size
		if end > len(candidates) {
			end = len(candidates)
		}
		groups = append(groups, candidates[start:end])
	}
	return groups
}
