// Package generate produces the candidate pool: batches of one-sentence
// story prompts requested from an LLM, each batch seeded with a few random
// adjectives and feelings to push the model toward variety.
package generate

import (
	"context"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storyrank/internal/domain"
	"storyrank/internal/ports"
	"storyrank/internal/runlog"
)

// Default configuration values.
const (
	// DefaultBatchSize is the number of prompts requested per generation call.
	DefaultBatchSize = 5
	// DefaultSeedWords is how many adjectives and how many feelings seed
	// each batch prompt.
	DefaultSeedWords = 3
)

//go:embed words/adjectives.txt words/feelings.txt
var embeddedWords embed.FS

// numberPrefix strips leading enumeration like "1." or "2)" from generated
// lines.
var numberPrefix = regexp.MustCompile(`^\d+[.\)]*\s*`)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config defines the configuration parameters for a Generator.
type Config struct {
	// BatchSize is the number of prompts requested per LLM call.
	BatchSize int `yaml:"batch_size" json:"batch_size" validate:"required,min=1,max=50"`

	// AdjectivesPath optionally overrides the embedded adjective list with a
	// newline-separated file.
	AdjectivesPath string `yaml:"adjectives_path" json:"adjectives_path"`

	// FeelingsPath optionally overrides the embedded feeling list.
	FeelingsPath string `yaml:"feelings_path" json:"feelings_path"`

	// Temperature controls randomness of the generation (0.0-2.0).
	// Generation wants variety, so the default is high.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits the length of one generation batch.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8000"`
}

// DefaultConfig returns the stock generation parameters.
func DefaultConfig() Config {
	return Config{
		BatchSize:   DefaultBatchSize,
		Temperature: 1.0,
		MaxTokens:   1500,
	}
}

// Generator asks an LLM for batches of story prompts and records every
// batch in the idea source log.
type Generator struct {
	llm        ports.LLMClient
	config     Config
	adjectives []string
	feelings   []string
	runID      string
	ideas      ports.RecordSink
	logger     *zap.Logger
	rng        *rand.Rand
}

// Option customizes a Generator.
type Option func(*Generator)

// WithIdeaSink attaches an append-only sink receiving one
// runlog.IdeaBatchRecord per generation batch. Sink failures are logged and
// never fail generation.
func WithIdeaSink(sink ports.RecordSink) Option {
	return func(g *Generator) { g.ideas = sink }
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithRunID stamps idea batch records with the given run identifier.
func WithRunID(runID string) Option {
	return func(g *Generator) { g.runID = runID }
}

// WithRand injects the word-sampling source, making batch prompts
// reproducible in tests.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// NewGenerator creates a Generator with the given LLM client and
// configuration. Word lists are loaded from the configured paths, falling
// back to the embedded defaults.
func NewGenerator(llm ports.LLMClient, config Config, opts ...Option) (*Generator, error) {
	if llm == nil {
		return nil, fmt.Errorf("LLM client cannot be nil: %w", domain.ErrInvalidConfiguration)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	adjectives, err := loadWordList(config.AdjectivesPath, "words/adjectives.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load adjectives: %w", err)
	}
	feelings, err := loadWordList(config.FeelingsPath, "words/feelings.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load feelings: %w", err)
	}

	g := &Generator{
		llm:        llm,
		config:     config,
		adjectives: adjectives,
		feelings:   feelings,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		// #nosec G404 - word sampling only needs variety, not security
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g, nil
}

// Batch requests one batch of story prompts from the model and returns the
// parsed candidate strings. The batch is appended to the idea source log.
func (g *Generator) Batch(ctx context.Context) ([]string, error) {
	prompt := g.buildPrompt()

	response, err := g.llm.Complete(ctx, prompt, map[string]any{
		"temperature": g.config.Temperature,
		"max_tokens":  g.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	ideas := ParseIdeas(response)
	g.recordBatch(prompt, response, ideas)
	g.logger.Debug("generated ideas", zap.Int("count", len(ideas)))
	return ideas, nil
}

// GenerateN keeps requesting batches until at least total ideas have been
// collected, then returns them all. The context bounds how long an
// unproductive model can keep the loop alive.
func (g *Generator) GenerateN(ctx context.Context, total int) ([]string, error) {
	var ideas []string
	for len(ideas) < total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := g.Batch(ctx)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, batch...)
		g.logger.Info("generation progress",
			zap.Int("batch", len(batch)),
			zap.Int("total", len(ideas)),
			zap.Int("target", total))
	}
	return ideas, nil
}

// buildPrompt assembles the batch request, seeded with random adjectives
// and feelings.
func (g *Generator) buildPrompt() string {
	return fmt.Sprintf(
		"Write %d one-sentence writing prompts for a short story. Be specific about the plot. "+
			"Make some decisions. Be creative! Here are some adjectives to get you started: %s, "+
			"and some feelings: %s.",
		g.config.BatchSize,
		strings.Join(g.sample(g.adjectives, DefaultSeedWords), ", "),
		strings.Join(g.sample(g.feelings, DefaultSeedWords), ", "),
	)
}

// sample picks n distinct words, or all of them when the list is shorter.
func (g *Generator) sample(words []string, n int) []string {
	if n >= len(words) {
		return words
	}
	picked := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(words))[:n] {
		picked = append(picked, words[i])
	}
	return picked
}

// ParseIdeas splits a generation response into candidate strings, dropping
// blank lines and stripping leading enumeration markers.
func ParseIdeas(response string) []string {
	var ideas []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberPrefix.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		ideas = append(ideas, line)
	}
	return ideas
}

// recordBatch appends the batch to the idea source log. Loss of the log is
// non-fatal.
func (g *Generator) recordBatch(prompt, raw string, ideas []string) {
	if g.ideas == nil {
		return
	}
	record := runlog.IdeaBatchRecord{
		RunID:  g.runID,
		Time:   time.Now().UTC(),
		Prompt: prompt,
		Raw:    raw,
		Ideas:  ideas,
	}
	if err := g.ideas.Append(record); err != nil {
		g.logger.Warn("failed to append idea batch record", zap.Error(err))
	}
}

// loadWordList reads a newline-separated word file from disk, or from the
// embedded defaults when no path is given.
func loadWordList(path, embeddedName string) ([]string, error) {
	var data []byte
	var err error
	if path != "" {
		// #nosec G304 - path comes from operator configuration
		data, err = os.ReadFile(path)
	} else {
		data, err = embeddedWords.ReadFile(embeddedName)
	}
	if err != nil {
		return nil, err
	}

	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			words = append(words, line)
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
