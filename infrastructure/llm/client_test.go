package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresModel(t *testing.T) {
	_, err := NewClient("openai", ClientConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("nonexistent", ClientConfig{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClient_BuiltinProvidersRegistered(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "google"} {
		_, ok := providerFactories[provider]
		assert.True(t, ok, "provider %s should self-register", provider)
	}
}

// recordingMiddleware tags responses so ordering is observable.
func recordingMiddleware(tag string, log *[]string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &taggedLLM{next: next, tag: tag, log: log}
	}
}

type taggedLLM struct {
	next CoreLLM
	tag  string
	log  *[]string
}

func (l *taggedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	*l.log = append(*l.log, l.tag)
	return l.next.DoRequest(ctx, prompt, opts)
}

func (l *taggedLLM) GetModel() string  { return l.next.GetModel() }
func (l *taggedLLM) SetModel(m string) { l.next.SetModel(m) }

// The first configured middleware must be the outermost wrapper.
func TestClient_MiddlewareOrder(t *testing.T) {
	mock := NewMockCoreLLM()
	RegisterProviderFactory("order-test", func(ClientConfig) (CoreLLM, error) {
		return mock, nil
	})

	var log []string
	client, err := NewClient("order-test", ClientConfig{
		Model: "m",
		Middleware: []Middleware{
			recordingMiddleware("outer", &log),
			recordingMiddleware("inner", &log),
		},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, log)
}

func TestClient_CompleteDelegates(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Response = "CHOICE(1)"
	RegisterProviderFactory("delegate-test", func(ClientConfig) (CoreLLM, error) {
		return mock, nil
	})

	client, err := NewClient("delegate-test", ClientConfig{Model: "m"})
	require.NoError(t, err)

	response, err := client.Complete(context.Background(), "pick one", map[string]any{"max_tokens": 100})

	require.NoError(t, err)
	assert.Equal(t, "CHOICE(1)", response)
	assert.Equal(t, "pick one", mock.LastPrompt)
	assert.Equal(t, "test-model", client.GetModel())
}
