package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

// WithEventContext injects a request-scoped logger for background handler executions.
// attrs must stay low-cardinality (event name, queue, use case).
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.Or(tel).Logger()
	}

	fields := make([]observability.Field, 0, len(attrs)+3)

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// EventHandlerContext adapts WithEventContext to the outbox bus hook, tagging
// every delivery with its event name and the publisher's trace identifiers.
func EventHandlerContext(tel observability.Observability) func(context.Context, observability.Logger, string, trace.SpanContext) context.Context {
	return func(ctx context.Context, base observability.Logger, eventName string, sc trace.SpanContext) context.Context {
		return WithEventContext(ctx, base, tel, sc.TraceID(), sc.SpanID(), map[string]string{
			"event": eventName,
		})
	}
}
