// Package otel provides OpenTelemetry instrumentation helpers for the marketplace services.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by marketplace spans
const (
	AttrPluginName      = attribute.Key("plugin.name")
	AttrPluginVersion   = attribute.Key("plugin.version")
	AttrPreviousVersion = attribute.Key("plugin.previous_version")
	AttrResultCount     = attribute.Key("result.count")
	AttrCloneDepth      = attribute.Key("git.clone_depth")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the span already in ctx.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on the span and marks it failed. The status
// description stays generic because git diagnostics may echo remote URLs;
// the full error is kept in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
