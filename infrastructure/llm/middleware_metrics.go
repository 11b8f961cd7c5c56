package llm

import (
	"context"
	"time"

	"storyrank/internal/ports"
)

// metricsLLM records operational metrics for every judge request.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that records request counts, failure
// counts, and latency through the provided collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			collector: collector,
		}
	}
}

// DoRequest forwards the request and records its outcome and duration.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	start := time.Now()
	response, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{"model": m.next.GetModel()}
	m.collector.RecordLatency("llm_request", time.Since(start), labels)

	status := "success"
	if err != nil {
		status = "error"
	}
	labels["status"] = status
	m.collector.RecordCounter("llm_requests_total", 1, labels)

	return response, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
