package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	reminderMeterName = "reminder.service"
)

type ReminderMetrics struct {
	occurrencesArmed    metric.Int64Counter
	occurrencesCanceled metric.Int64Counter
	alertsFired         metric.Int64Counter
	responses           metric.Int64Counter
	reconcileDuration   metric.Float64Histogram
	dispatchLag         metric.Float64Histogram
	batchSize           metric.Int64Histogram
}

func NewReminderMetrics() (*ReminderMetrics, error) {
	meter := otel.Meter(reminderMeterName)

	occurrencesArmed, err := meter.Int64Counter(
		"reminder_occurrences_armed_total",
		metric.WithDescription("Total number of occurrences armed in the alert store"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	occurrencesCanceled, err := meter.Int64Counter(
		"reminder_occurrences_canceled_total",
		metric.WithDescription("Total number of armed occurrences canceled"),
		metric.WithUnit("{occurrence}"),
	)
	if err != nil {
		return nil, err
	}

	alertsFired, err := meter.Int64Counter(
		"reminder_alerts_fired_total",
		metric.WithDescription("Total number of alerts fired"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	responses, err := meter.Int64Counter(
		"reminder_responses_total",
		metric.WithDescription("Responses routed, by action and outcome"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	reconcileDuration, err := meter.Float64Histogram(
		"reminder_reconcile_duration_seconds",
		metric.WithDescription("Time spent reconciling one medication"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
		),
	)
	if err != nil {
		return nil, err
	}

	dispatchLag, err := meter.Float64Histogram(
		"reminder_dispatch_lag_seconds",
		metric.WithDescription("Delay between an alert's fire time and its dispatch"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.1, 0.5, 1, 2, 5, 10, 30, 60, 300,
		),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram(
		"reminder_prompt_batch_size",
		metric.WithDescription("Number of medications grouped into one prompt"),
		metric.WithUnit("{medication}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		occurrencesArmed:    occurrencesArmed,
		occurrencesCanceled: occurrencesCanceled,
		alertsFired:         alertsFired,
		responses:           responses,
		reconcileDuration:   reconcileDuration,
		dispatchLag:         dispatchLag,
		batchSize:           batchSize,
	}, nil
}

// The Record methods are safe to call on a nil *ReminderMetrics.

func (m *ReminderMetrics) RecordOccurrencesArmed(ctx context.Context, recurring bool, count int) {
	if m == nil || count == 0 {
		return
	}
	m.occurrencesArmed.Add(ctx, int64(count), metric.WithAttributes(
		attribute.Bool("recurring", recurring),
	))
}

func (m *ReminderMetrics) RecordOccurrencesCanceled(ctx context.Context, reason string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.occurrencesCanceled.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (m *ReminderMetrics) RecordAlertFired(ctx context.Context, snoozed bool, lag time.Duration) {
	if m == nil {
		return
	}
	m.alertsFired.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("snoozed", snoozed),
	))
	if lag < 0 {
		lag = 0
	}
	m.dispatchLag.Record(ctx, lag.Seconds())
}

func (m *ReminderMetrics) RecordResponse(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	m.responses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordReconcileDuration(ctx context.Context, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reconcileDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("result", result),
	))
}

func (m *ReminderMetrics) RecordBatchSize(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.batchSize.Record(ctx, int64(size))
}
