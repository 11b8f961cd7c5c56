package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Default backoff bounds for transport retries.
const (
	// DefaultRetryBaseDelay is the first backoff interval.
	DefaultRetryBaseDelay = 500 * time.Millisecond
	// DefaultRetryMaxDelay caps the exponential backoff.
	DefaultRetryMaxDelay = 15 * time.Second
)

// retryLLM implements automatic retry logic with exponential backoff for
// transient transport failures. The ranking core never retries transport
// errors itself; installing this middleware is the supported way for a
// caller to make the judge connection resilient.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that automatically retries failed
// requests with exponential backoff. Only errors classified as retryable
// (rate limits, server errors, network failures) are retried.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// DoRequest executes the request with automatic retry logic.
// It implements exponential backoff with jitter and respects context
// cancellation to avoid unnecessary retries.
func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, nil
		}

		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			break
		}

		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
			// Continue to next attempt.
		}
	}

	return "", fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// isRetryable reports whether a transport error is worth retrying.
// Unclassified errors are retried as well, since transient connection
// failures often surface as plain errors.
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}
	return true
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	// Exponential backoff with jitter.
	attempt = ClampInt(attempt, 0, 30)
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Add jitter (±25%)
	// #nosec G404 - Using weak RNG is acceptable for jitter calculation
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// GetModel returns the model name from the wrapped implementation.
func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
