package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a configurable CoreLLM implementation for testing
// middleware behavior without a real provider.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response is returned by DoRequest when Error is nil.
	Response string
	// Error, when non-nil, is returned by every DoRequest call.
	Error error
	// Errors, when non-empty, is consumed one entry per call before
	// falling back to Error. A nil entry means that call succeeds.
	Errors []error
	// ResponseDelay simulates provider latency.
	ResponseDelay time.Duration

	// LastPrompt and LastOpts capture the most recent request.
	LastPrompt string
	LastOpts   map[string]any

	model     string
	callCount int
}

// NewMockCoreLLM creates a mock with a default model and response.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		model:    "test-model",
		Response: "test response",
	}
}

// DoRequest returns the configured response or error after the configured
// delay, honoring context cancellation.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.LastPrompt = prompt
	m.LastOpts = opts
	var err error
	if len(m.Errors) > 0 {
		err = m.Errors[0]
		m.Errors = m.Errors[1:]
	} else {
		err = m.Error
	}
	response := m.Response
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

// GetCallCount returns how many times DoRequest was invoked.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GetModel returns the mock model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the mock model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}
