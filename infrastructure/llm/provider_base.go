package llm

import "sync"

// BaseProvider provides common, thread-safe functionality for all LLM
// providers, primarily for managing the model name.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the name of the model currently configured for the provider.
// It is safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name for the provider.
// It is safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions represents a standardized set of configuration parameters
// for a judge request. It consolidates common settings across providers.
type RequestOptions struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	MaxTokens int
	// Model is the identifier of the language model to use for the request.
	Model string
	// Temperature controls the randomness of the output.
	// A nil value indicates that the provider's default should be used.
	Temperature *float64
	// System provides instructions or context to the model, guiding its
	// behavior and response style for the conversation.
	System string
	// Extra holds any provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates request parameters from a map.
// It populates a RequestOptions struct with standardized values, using the
// given defaults for missing or invalid entries. Any unrecognized options
// are collected into the Extra field.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature":
			// Standard options, already processed.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// ExtractOptionalString returns the string stored under key, or the default
// when the key is absent, holds a non-string, or fails the validity check.
// A nil valid function accepts every string.
func ExtractOptionalString(opts map[string]any, key, def string, valid func(string) bool) string {
	raw, ok := opts[key]
	if !ok {
		return def
	}
	val, ok := raw.(string)
	if !ok {
		return def
	}
	if valid != nil && !valid(val) {
		return def
	}
	return val
}

// ExtractOptionalInt returns the int stored under key, accepting int, int64,
// and float64 representations, or the default when absent or invalid.
func ExtractOptionalInt(opts map[string]any, key string, def int, valid func(int) bool) int {
	raw, ok := opts[key]
	if !ok {
		return def
	}
	val, ok := SafeInt(raw)
	if !ok {
		return def
	}
	if valid != nil && !valid(val) {
		return def
	}
	return val
}

// ExtractOptionalFloat64 returns the float64 stored under key, accepting int
// and float representations, or the default when absent or invalid.
func ExtractOptionalFloat64(opts map[string]any, key string, def float64, valid func(float64) bool) float64 {
	raw, ok := opts[key]
	if !ok {
		return def
	}
	var val float64
	switch v := raw.(type) {
	case float64:
		val = v
	case float32:
		val = float64(v)
	case int:
		val = float64(v)
	case int64:
		val = float64(v)
	default:
		return def
	}
	if valid != nil && !valid(val) {
		return def
	}
	return val
}

// SafeInt safely converts a numeric value of type any to an int.
// It returns the converted value and a boolean indicating success.
func SafeInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		if int64(int(v)) != v {
			return 0, false
		}
		return int(v), true
	case float64:
		// NaN cannot be converted to an integer.
		if v != v {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
