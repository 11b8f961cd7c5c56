// Package oracle implements the judge abstraction used by the tournament:
// given a small ordered group of candidates, ask the LLM which one is most
// promising and extract a structured CHOICE(n) marker from its reply.
package oracle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storyrank/internal/domain"
	"storyrank/internal/ports"
	"storyrank/internal/runlog"
)

var _ ports.Oracle = (*ChoiceOracle)(nil)

// DefaultSystemPrompt frames the judge as an editor and instructs it to end
// its reply with a CHOICE(n) marker. The analysis sections give weaker
// models room to reason before committing to a pick.
const DefaultSystemPrompt = "You are an experienced editor, and you have a gut instinct for what " +
	"will make a great story. First, analyze every one of the options by writing a few thoughts " +
	"about each story idea. Label this section \"Analysis\". Then, consider which story has the " +
	"most promise to be a compelling, engaging story when developed. Label this section with " +
	"\"Thinking and Evaluation\". Finally, respond with your decision on the top pick. Label this " +
	"section \"Final Decision\". You should format your response this way: CHOICE(n) where n is a " +
	"number. For example, CHOICE(1), or CHOICE(2), or CHOICE(3), CHOICE(4), and so on. Just make " +
	"a single choice. The team will then approach the author to develop the story idea you " +
	"selected. Base your decision on careful comparison of the ideas, and choose the one that you " +
	"think will be the most successful."

// DefaultQuestion introduces the numbered list of candidates.
const DefaultQuestion = "Which of the following ideas should we pursue?"

// choicePattern matches the structured decision marker in a judge response.
// The first occurrence wins; the captured integer is 1-indexed.
var choicePattern = regexp.MustCompile(`CHOICE\((\d+)\)`)

// Config defines the configuration parameters for a ChoiceOracle.
type Config struct {
	// SystemPrompt is the judge persona and output-format instruction.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt" validate:"required,min=20"`

	// Question introduces the candidate list in the user prompt.
	Question string `yaml:"question" json:"question" validate:"required"`

	// Temperature controls randomness in the judge's reply (0.0-2.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits the length of the judge's reasoning.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8000"`
}

// DefaultConfig returns a Config with the stock editor persona.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: DefaultSystemPrompt,
		Question:     DefaultQuestion,
		Temperature:  0.7,
		MaxTokens:    2000,
	}
}

// Package-level validator instance for configuration validation.
var validate = validator.New()

// ChoiceOracle asks an LLM judge to pick a winner among a group of
// candidates. It holds no retry logic and no mutable state beyond its
// configuration; retries are the Ranker's responsibility.
type ChoiceOracle struct {
	llm       ports.LLMClient
	config    Config
	runID     string
	decisions ports.RecordSink
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// Option customizes a ChoiceOracle.
type Option func(*ChoiceOracle)

// WithDecisionSink attaches an append-only audit sink receiving one
// runlog.DecisionRecord per judge invocation. Sink failures are logged and
// never fail the decision pipeline.
func WithDecisionSink(sink ports.RecordSink) Option {
	return func(o *ChoiceOracle) { o.decisions = sink }
}

// WithMetrics attaches a metrics collector for call and outcome counters.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(o *ChoiceOracle) { o.metrics = collector }
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *ChoiceOracle) { o.logger = logger }
}

// WithRunID stamps every decision record with the given run identifier.
func WithRunID(runID string) Option {
	return func(o *ChoiceOracle) { o.runID = runID }
}

// NewChoiceOracle creates a ChoiceOracle with the given judge client and
// configuration. Returns an error if configuration validation fails or the
// client is missing.
func NewChoiceOracle(llm ports.LLMClient, config Config, opts ...Option) (*ChoiceOracle, error) {
	if llm == nil {
		return nil, fmt.Errorf("LLM client cannot be nil: %w", domain.ErrInvalidConfiguration)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	o := &ChoiceOracle{
		llm:    llm,
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Pick asks the judge to choose the best candidate from the group and
// returns its 0-based index.
//
// A single-candidate group wins automatically without consulting the judge.
// A missing, unparseable, or out-of-range CHOICE marker yields an error
// matching domain.ErrNoDecision; transport failures are returned as-is.
func (o *ChoiceOracle) Pick(ctx context.Context, group []domain.Candidate) (int, error) {
	switch len(group) {
	case 0:
		return -1, domain.ErrEmptyGroup
	case 1:
		return 0, nil
	}

	prompt := o.buildPrompt(group)
	options := map[string]any{
		"system":      o.config.SystemPrompt,
		"temperature": o.config.Temperature,
		"max_tokens":  o.config.MaxTokens,
	}

	start := time.Now()
	response, err := o.llm.Complete(ctx, prompt, options)
	if err != nil {
		o.count("transport_error")
		return -1, fmt.Errorf("judge request failed: %w", err)
	}

	o.recordDecision(group, prompt, response)
	if o.metrics != nil {
		o.metrics.RecordLatency("oracle_pick", time.Since(start), map[string]string{"model": o.llm.GetModel()})
	}

	index, err := parseChoice(response, len(group))
	if err != nil {
		o.count("no_decision")
		o.logger.Debug("judge produced no usable decision",
			zap.Int("group_size", len(group)),
			zap.String("response", truncate(response, 400)),
			zap.Error(err))
		return -1, err
	}

	o.count("decision")
	o.logger.Debug("judge picked",
		zap.Int("index", index),
		zap.String("candidate", group[index].ID))
	return index, nil
}

// buildPrompt renders the group as a 1-indexed list under the configured
// question.
func (o *ChoiceOracle) buildPrompt(group []domain.Candidate) string {
	var b strings.Builder
	b.WriteString(o.config.Question)
	b.WriteString("\n")
	for i, c := range group {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Text)
	}
	return b.String()
}

// parseChoice extracts the first CHOICE(n) marker from a judge response and
// converts it to a 0-based index. Any failure maps to domain.ErrNoDecision.
func parseChoice(response string, groupSize int) (int, error) {
	match := choicePattern.FindStringSubmatch(response)
	if match == nil {
		return -1, fmt.Errorf("no CHOICE marker in response: %w", domain.ErrNoDecision)
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return -1, fmt.Errorf("unparseable CHOICE marker %q: %w", match[0], domain.ErrNoDecision)
	}

	index := n - 1
	if index < 0 || index >= groupSize {
		return -1, fmt.Errorf("choice %d out of range for group of %d: %w", n, groupSize, domain.ErrNoDecision)
	}
	return index, nil
}

// recordDecision appends the full request/response pair to the audit sink.
// Loss of the audit log is non-fatal: failures are logged and swallowed.
func (o *ChoiceOracle) recordDecision(group []domain.Candidate, prompt, response string) {
	if o.decisions == nil {
		return
	}

	ids := make([]string, len(group))
	for i, c := range group {
		ids[i] = c.ID
	}

	record := runlog.DecisionRecord{
		RunID:        o.runID,
		Time:         time.Now().UTC(),
		Model:        o.llm.GetModel(),
		CandidateIDs: ids,
		Prompt:       prompt,
		Response:     response,
	}
	if err := o.decisions.Append(record); err != nil {
		o.logger.Warn("failed to append decision record", zap.Error(err))
	}
}

func (o *ChoiceOracle) count(outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter("oracle_picks_total", 1, map[string]string{"outcome": outcome})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
