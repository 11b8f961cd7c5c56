package llm

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is the default model for the Google provider.
const GoogleDefaultModel = "gemini-2.0-flash-exp"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements the CoreLLM interface for Google's Gemini API.
// It handles Google-specific authentication, request formatting, and error
// handling, while conforming to the common interface for middleware
// compatibility.
type googleProvider struct {
	BaseProvider
	client *genai.Client
}

// newGoogleProvider creates a new Google Gemini provider instance.
func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider: BaseProvider{model: model},
		client:       client,
	}, nil
}

// DoRequest sends a request to the Gemini API and returns the response text.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	resp, err := p.client.Models.GenerateContent(ctx,
		options.Model,
		p.buildContents(prompt, options),
		p.buildGenerationConfig(options),
	)
	if err != nil {
		return "", p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// buildContents creates the content for a Gemini request. The system
// instruction is prepended to the user prompt, as Gemini's generate API
// does not accept a separate system role here.
func (p *googleProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}

	return []*genai.Content{genai.NewContentFromText(finalPrompt, genai.RoleUser)}
}

// buildGenerationConfig creates the generation configuration for a Gemini
// request, validating and clamping parameters to supported ranges.
func (p *googleProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, 0.0, 2.0)
		config.Temperature = genai.Ptr(float32(temp))
	}

	if options.MaxTokens > 0 {
		if options.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(options.MaxTokens)
		}
	}

	return config
}

// handleError provides structured error handling for Google API responses.
func (p *googleProvider) handleError(err error) error {
	if isContextError(err) {
		return ClassifyContextError("google", err)
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return ClassifyHTTPError("google", apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}
