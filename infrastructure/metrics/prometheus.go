// Package metrics provides the Prometheus implementation of the
// MetricsCollector port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyrank/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of judge traffic, oracle
// outcomes, and tournament progress.
type PrometheusMetrics struct {
	operationCounter *prometheus.CounterVec
	latencyHistogram *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics with the given registerer. Pass prometheus.DefaultRegisterer
// for the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyrank_operations_total",
				Help: "Count of ranking operations by metric name and outcome.",
			},
			[]string{"metric", "outcome", "model"},
		),
		latencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storyrank_operation_duration_seconds",
				Help:    "Execution time of judge and tournament operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model"},
		),
	}
}

// RecordCounter implements the MetricsCollector interface by incrementing
// the operation counter. The "outcome" and "model" labels are read from the
// labels map when present.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.operationCounter.WithLabelValues(metric, pick(labels, "outcome", "status"), labels["model"]).Add(value)
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latencyHistogram.WithLabelValues(operation, labels["model"]).Observe(duration.Seconds())
}

// pick returns the first non-empty label among keys.
func pick(labels map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return ""
}
