// Package telemetry selects the OpenTelemetry tracer a statechart records
// spans with.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var provider = noop.NewTracerProvider()

// NewProvider returns a provider whose spans record nothing.
func NewProvider() trace.TracerProvider {
	return provider
}

// Tracer returns the tracer named name from the global provider when global
// is set, otherwise from the no-op provider.
func Tracer(name string, global bool) trace.Tracer {
	if global {
		return otel.Tracer(name)
	}
	return provider.Tracer(name)
}

// Start begins a span carrying attributes.
func Start(ctx context.Context, tracer trace.Tracer, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attributes...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
