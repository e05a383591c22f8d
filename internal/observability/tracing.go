package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTurnSpan starts the span covering one chat turn. The tracer is
// resolved from the global provider on every call so that providers
// installed after startup are honoured.
func StartTurnSpan(ctx context.Context, nodeID int64, provider, model string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, "chat.turn",
		trace.WithAttributes(
			attribute.Int64("node_id", nodeID),
			attribute.String("provider", provider),
			attribute.String("model", model),
		),
	)
}

// AddEvent adds an event to the span carried by ctx, if any.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpan completes a span, recording err when present.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
