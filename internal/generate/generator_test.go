package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyrank/internal/runlog"
)

// stubModel is a canned ports.LLMClient for driving generation.
type stubModel struct {
	responses  []string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubModel) Complete(_ context.Context, prompt string, _ map[string]any) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	response := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return response, nil
}

func (s *stubModel) GetModel() string { return "stub-model" }

type captureSink struct {
	records []any
}

func (c *captureSink) Append(record any) error {
	c.records = append(c.records, record)
	return nil
}

func newTestGenerator(t *testing.T, model *stubModel, opts ...Option) *Generator {
	t.Helper()
	opts = append(opts, WithRand(rand.New(rand.NewSource(7))))
	generator, err := NewGenerator(model, DefaultConfig(), opts...)
	require.NoError(t, err)
	return generator
}

func TestParseIdeas(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "numbered with dots",
			response: "1. A lighthouse keeper hears knocking.\n2. The last tree writes letters.",
			want:     []string{"A lighthouse keeper hears knocking.", "The last tree writes letters."},
		},
		{
			name:     "numbered with parentheses",
			response: "1) first idea\n2) second idea",
			want:     []string{"first idea", "second idea"},
		},
		{
			name:     "blank lines dropped",
			response: "\n1. only idea\n\n\n",
			want:     []string{"only idea"},
		},
		{
			name:     "unnumbered lines kept verbatim",
			response: "An idea without numbering",
			want:     []string{"An idea without numbering"},
		},
		{
			name:     "line that is only a number",
			response: "3.\nA real idea",
			want:     []string{"A real idea"},
		},
		{
			name:     "empty response",
			response: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIdeas(tt.response))
		})
	}
}

func TestNewGenerator_NilClient(t *testing.T) {
	_, err := NewGenerator(nil, DefaultConfig())
	require.Error(t, err)
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.BatchSize = 0

	_, err := NewGenerator(&stubModel{}, config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestNewGenerator_WordListOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjectives.txt")
	require.NoError(t, os.WriteFile(path, []byte("solitary\nglass\n"), 0o644))
	config := DefaultConfig()
	config.AdjectivesPath = path

	model := &stubModel{responses: []string{"1. idea"}}
	generator, err := NewGenerator(model, config, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	_, err = generator.Batch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, model.lastPrompt, "solitary")
	assert.Contains(t, model.lastPrompt, "glass")
}

func TestNewGenerator_MissingWordListFile(t *testing.T) {
	config := DefaultConfig()
	config.FeelingsPath = filepath.Join(t.TempDir(), "absent.txt")

	_, err := NewGenerator(&stubModel{}, config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load feelings")
}

func TestBatch_ParsesAndRecords(t *testing.T) {
	model := &stubModel{responses: []string{"1. first\n2. second"}}
	sink := &captureSink{}
	generator := newTestGenerator(t, model, WithIdeaSink(sink), WithRunID("run-1"))

	ideas, err := generator.Batch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ideas)

	require.Len(t, sink.records, 1)
	record, ok := sink.records[0].(runlog.IdeaBatchRecord)
	require.True(t, ok)
	assert.Equal(t, "run-1", record.RunID)
	assert.Equal(t, model.lastPrompt, record.Prompt)
	assert.Equal(t, "1. first\n2. second", record.Raw)
	assert.Equal(t, ideas, record.Ideas)
}

func TestBatch_PromptRequestsBatchSize(t *testing.T) {
	model := &stubModel{responses: []string{"1. idea"}}
	generator := newTestGenerator(t, model)

	_, err := generator.Batch(context.Background())

	require.NoError(t, err)
	assert.Contains(t, model.lastPrompt, fmt.Sprintf("Write %d one-sentence", DefaultBatchSize))
}

func TestBatch_TransportError(t *testing.T) {
	model := &stubModel{err: errors.New("connection refused")}
	generator := newTestGenerator(t, model)

	_, err := generator.Batch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation request failed")
}

// GenerateN keeps asking until the target is met, even when batches come
// back short.
func TestGenerateN_AccumulatesAcrossBatches(t *testing.T) {
	model := &stubModel{responses: []string{
		"1. one\n2. two",
		"1. three",
		"1. four\n2. five\n3. six",
	}}
	generator := newTestGenerator(t, model)

	ideas, err := generator.GenerateN(context.Background(), 6)

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four", "five", "six"}, ideas)
	assert.Equal(t, 3, model.calls)
}

func TestGenerateN_ZeroTarget(t *testing.T) {
	model := &stubModel{responses: []string{"1. idea"}}
	generator := newTestGenerator(t, model)

	ideas, err := generator.GenerateN(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, ideas)
	assert.Zero(t, model.calls)
}

func TestGenerateN_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := &stubModel{responses: []string{"1. idea"}}
	generator := newTestGenerator(t, model)

	_, err := generator.GenerateN(ctx, 10)

	require.ErrorIs(t, err, context.Canceled)
}
