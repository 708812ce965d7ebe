package tracing

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const reminderTracerName = "github.com/KasumiMercury/primind-medication-reminder/internal/service/reminder"

func ReminderTracer() trace.Tracer {
	return otel.Tracer(reminderTracerName)
}

func StartReconcileSpan(ctx context.Context, medicationID string, continuous bool, clockTimes int) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.reconcile",
		trace.WithAttributes(
			attribute.String("medication_id", medicationID),
			attribute.Bool("medication.continuous", continuous),
			attribute.Int("medication.clock_time_count", clockTimes),
		),
	)
}

func StartResponseSpan(ctx context.Context, action, instanceID, medicationID string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.response",
		trace.WithAttributes(
			attribute.String("response.action", action),
			attribute.String("response.instance_id", instanceID),
			attribute.String("medication_id", medicationID),
		),
	)
}

func StartDispatchSpan(ctx context.Context, instanceID string, fireAt time.Time) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.dispatch",
		trace.WithAttributes(
			attribute.String("alert.instance_id", instanceID),
			attribute.String("alert.fire_at", fireAt.Format(time.RFC3339)),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordReconcileResult(span trace.Span, canceled, armed int, err error) {
	span.SetAttributes(
		attribute.Int("reconcile.canceled_count", canceled),
		attribute.Int("reconcile.armed_count", armed),
	)
	End(span, err)
}

func RecordResponseResult(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("response.outcome", outcome))
	End(span, err)
}

// End sets the span status from err and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectToHTTPRequest propagates the span context in ctx onto req's headers.
func InjectToHTTPRequest(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// ExtractFromHTTPRequest returns ctx carrying the remote span context found on req.
func ExtractFromHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header))
}
