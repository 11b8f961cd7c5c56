package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// OpenAIDefaultModel is used when no model is configured for the
	// OpenAI-compatible provider.
	OpenAIDefaultModel = "gpt-4o-mini"

	// ollamaPlaceholderKey satisfies SDK clients pointed at endpoints that
	// ignore authentication, like a local Ollama server.
	ollamaPlaceholderKey = "not-needed"
)

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
}

// openAIProvider implements the CoreLLM interface against any
// OpenAI-compatible chat completion endpoint. A local Ollama server exposes
// this API, which makes it the default transport for a locally hosted judge.
type openAIProvider struct {
	BaseProvider
	client *openai.Client
}

// newOpenAIProvider creates a new OpenAI-compatible provider instance.
// An empty API key is accepted when a BaseURL is supplied, since local
// servers do not authenticate; the official endpoint still requires a key.
func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = ollamaPlaceholderKey
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = validatedURL
	}

	return &openAIProvider{
		BaseProvider: BaseProvider{model: model},
		client:       openai.NewClientWithConfig(clientConfig),
	}, nil
}

// DoRequest sends a chat completion request and returns the response text.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(prompt, options))
	if err != nil {
		return "", p.handleError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoResponseChoice
	}

	return resp.Choices[0].Message.Content, nil
}

// buildRequest creates an openai.ChatCompletionRequest from a prompt and
// parsed options, mapping the system instruction to a system-role message.
func (p *openAIProvider) buildRequest(prompt string, options RequestOptions) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    options.Model,
		Messages: messages,
	}

	if options.Temperature != nil {
		// The OpenAI API supports a temperature range of 0.0 to 2.0.
		req.Temperature = float32(ClampFloat64(*options.Temperature, 0.0, 2.0))
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	return req
}

// handleError classifies and wraps errors from the OpenAI-compatible API.
func (p *openAIProvider) handleError(err error) error {
	if isContextError(err) {
		return ClassifyContextError("openai", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return ClassifyHTTPError("openai", apiErr.HTTPStatusCode, message, err)
	}

	return NewProviderError("openai", ErrorTypeUnknown, 0, "request failed", err)
}
