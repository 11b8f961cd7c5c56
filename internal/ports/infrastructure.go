package ports

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers.
// Implementations should handle provider-specific details like authentication,
// request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider and returns
	// the generated text.
	//
	// The options map allows flexibility for different providers without
	// changing the interface. Common options include:
	//   - "system": string (system instruction for the judge persona)
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "model": string (override the configured model)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the model identifier being used by this client.
	// This is useful for logging and debugging purposes.
	GetModel() string
}

// RecordSink is an append-only destination for self-contained log records:
// judge decisions, per-round score snapshots, generated idea batches, and
// final rankings. Implementations serialize one record per line.
//
// Sinks on the decision path are best-effort: callers treat Append failures
// as non-fatal and keep going.
type RecordSink interface {
	Append(record any) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordCounter increments a counter metric.
	// This is useful for tracking events like oracle calls, no-decisions,
	// and eliminated groups.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)
}
