//go:build gcloud

package outcomerecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt   time.Time `bigquery:"recorded_at"`
	HandledAt    time.Time `bigquery:"handled_at"`
	MedicationID string    `bigquery:"medication_id"`
	UserID       string    `bigquery:"user_id"`
	ClockTime    string    `bigquery:"clock_time"`
	Action       string    `bigquery:"action"`
	Outcome      string    `bigquery:"outcome"`
	Snoozed      bool      `bigquery:"snoozed"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.OutcomeRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "reminder outcome recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, reminder outcome recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, reminder outcome recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	slog.InfoContext(ctx, "reminder outcome recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter(),
	}, nil
}

func (r *bigQueryRecorder) RecordOutcome(ctx context.Context, record domain.OutcomeRecord) error {
	row := &bigQueryRecord{
		RecordedAt:   time.Now(),
		HandledAt:    record.HandledAt,
		MedicationID: record.MedicationID,
		UserID:       record.UserID,
		ClockTime:    record.ClockTime,
		Action:       record.Action.String(),
		Outcome:      record.Outcome.String(),
		Snoozed:      record.Snoozed,
	}

	if err := r.inserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert reminder outcome to BigQuery",
			slog.String("error", err.Error()),
			slog.String("medication_id", record.MedicationID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
