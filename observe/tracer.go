package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// PluginMeta identifies a plugin in telemetry.
type PluginMeta struct {
	Name    string // Registry name (required)
	Kind    string // Plugin implementation, e.g. "redis" (optional)
	Version string // Optional
}

// SpanName returns the span name for op on this plugin.
// Format: plugin.<op>.<name>
func (m PluginMeta) SpanName(op string) string {
	return "plugin." + op + "." + m.Name
}

func (m PluginMeta) attributes(op string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("plugin.name", m.Name),
		attribute.String("plugin.op", op),
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("plugin.kind", m.Kind))
	}
	if m.Version != "" {
		attrs = append(attrs, attribute.String("plugin.version", m.Version))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with plugin span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one lifecycle operation.
	StartSpan(ctx context.Context, meta PluginMeta, op string) (context.Context, trace.Span)

	// EndSpan ends the span, recording err if non-nil.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return newNoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta PluginMeta, op string) (context.Context, trace.Span) {
	attrs := append(meta.attributes(op), attribute.Bool("plugin.error", false))
	return t.tracer.Start(ctx, meta.SpanName(op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("plugin.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta PluginMeta, op string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName(op))
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
