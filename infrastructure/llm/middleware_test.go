package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryMiddleware_SucceedsAfterTransientFailures(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Errors = []error{
		NewProviderError("test", ErrorTypeServerError, 500, "upstream down", nil),
		NewProviderError("test", ErrorTypeRateLimit, 429, "slow down", nil),
		nil,
	}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	response, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.NoError(t, err)
	assert.Equal(t, "test response", response)
	assert.Equal(t, 3, mock.GetCallCount())
}

// Non-retryable classifications fail immediately without burning attempts.
func TestRetryMiddleware_NonRetryableStopsEarly(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("test", ErrorTypeAuthentication, 401, "bad key", nil)
	wrapped := RetryMiddleware(5, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.Error(t, err)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestRetryMiddleware_ExhaustsAttempts(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("test", ErrorTypeServerError, 503, "unavailable", nil)
	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, mock.GetCallCount())
}

// Plain errors carry no classification; treat them as transient.
func TestRetryMiddleware_RetriesUnclassifiedErrors(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Errors = []error{errors.New("connection reset"), nil}
	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, mock.GetCallCount())
}

func TestRetryMiddleware_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockCoreLLM()
	mock.Error = NewProviderError("test", ErrorTypeServerError, 500, "down", nil)
	wrapped := RetryMiddleware(10, 50*time.Millisecond, time.Second)(mock)

	cancel()
	_, err := wrapped.DoRequest(ctx, "p", nil)

	require.Error(t, err)
	assert.LessOrEqual(t, mock.GetCallCount(), 1)
}

func TestTimeoutMiddleware_CancelsSlowRequests(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutMiddleware_PassesFastRequests(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := TimeoutMiddleware(time.Second)(mock)

	response, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.NoError(t, err)
	assert.Equal(t, "test response", response)
}

func TestRateLimitMiddleware_DelaysBeyondBurst(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(20, 1)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := wrapped.DoRequest(context.Background(), "p", nil)
		require.NoError(t, err)
	}

	// At 20 req/s with burst 1, the second and third calls each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, 3, mock.GetCallCount())
}

func TestRateLimitMiddleware_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(0.001, 1)(mock)

	// Burst covers the first call; the canceled context must abort the wait
	// on the second instead of blocking for minutes.
	_, _ = wrapped.DoRequest(context.Background(), "p", nil)
	_, err := wrapped.DoRequest(ctx, "p", nil)

	require.Error(t, err)
}

func TestMiddleware_PreservesModelAccess(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RetryMiddleware(1, time.Millisecond, time.Millisecond)(
		TimeoutMiddleware(time.Second)(mock))

	assert.Equal(t, "test-model", wrapped.GetModel())
	wrapped.SetModel("other")
	assert.Equal(t, "other", mock.GetModel())
}
