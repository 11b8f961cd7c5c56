// Package llm provides a unified interface for talking to the judge model
// behind the ranking pipeline, with built-in support for retries, rate
// limiting, timeouts, metrics, and tracing.
//
// The package abstracts multiple providers (an OpenAI-compatible endpoint
// such as a local Ollama server, Anthropic, Google Gemini) behind a common
// interface while adding operational concerns through a middleware pattern.
// This allows the ranking core to switch judges without changing client code.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434/v1",
//	    Model:   "wizardlm-uncensored",
//	})
//	response, err := client.Complete(ctx, "Which of these ideas ...", nil)
//
// Advanced usage with middleware:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:  "claude-3-5-sonnet-20241022",
//	    Middleware: []llm.Middleware{
//	        llm.RateLimitMiddleware(2, 4),
//	        llm.TimeoutMiddleware(2 * time.Minute),
//	    },
//	})
package llm

import (
	"context"
	"fmt"

	"storyrank/internal/ports"
)

// CoreLLM defines the minimal interface that LLM providers must implement.
// This interface abstracts the core functionality needed to make requests
// to different judge services, allowing the middleware system to wrap
// any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response text.
	// The opts parameter allows provider-specific configuration such as
	// system instruction, temperature, or max tokens.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model to use for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM implementation to add cross-cutting functionality.
// This pattern allows composition of features like rate limiting, retries,
// metrics collection, and tracing without modifying core provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all configuration options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider. Providers that do not
	// need authentication (a local OpenAI-compatible server) accept an
	// empty key.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// BaseURL overrides the default API endpoint for the provider.
	// Leave empty to use the provider's default endpoint.
	BaseURL string

	// Middleware allows custom middleware insertion.
	// These are applied in the order specified, first entry outermost.
	Middleware []Middleware
}

// Client implements the ports.LLMClient interface by delegating to a
// middleware-wrapped CoreLLM provider.
type Client struct {
	core CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient creates a new LLM client with the specified provider and
// configuration. It assembles the middleware chain and validates
// configuration before returning a ready-to-use client instance.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse order so the first middleware is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Complete sends a prompt to the judge and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel returns the currently configured model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreLLM implementation from configuration.
// This function signature allows the provider registry to create
// provider instances without knowing their specific implementation details.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// Provider factory registry for extensibility.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory allows registration of custom provider factories.
// This enables extension of the client with additional judges without
// modifying the core package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
