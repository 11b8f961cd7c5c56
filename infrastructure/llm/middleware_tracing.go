package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation library in trace exports.
const tracerName = "storyrank/infrastructure/llm"

// tracingLLM wraps judge requests in OpenTelemetry spans for distributed
// tracing of ranking runs.
type tracingLLM struct {
	next   CoreLLM
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that starts a span around every
// judge request, recording the model and prompt size as attributes.
func TracingMiddleware() Middleware {
	return func(next CoreLLM) CoreLLM {
		return &tracingLLM{
			next:   next,
			tracer: otel.Tracer(tracerName),
		}
	}
}

// DoRequest executes the request inside a span and records errors on it.
func (t *tracingLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", t.next.GetModel()),
			attribute.Int("llm.prompt_length", len(prompt)),
		),
	)
	defer span.End()

	response, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.response_length", len(response)))
	return response, nil
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracingLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracingLLM) SetModel(m string) { t.next.SetModel(m) }
