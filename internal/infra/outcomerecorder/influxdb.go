//go:build !gcloud

package outcomerecorder

import (
	"context"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const outcomeMeasurement = "reminder_outcome"

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.OutcomeRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "reminder outcome recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, reminder outcome recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)

	slog.InfoContext(ctx, "reminder outcome recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket),
	}, nil
}

// RecordOutcome never fails the caller; write errors are logged.
func (r *influxDBRecorder) RecordOutcome(ctx context.Context, record domain.OutcomeRecord) error {
	if err := r.writeAPI.WritePoint(ctx, outcomePoint(record)); err != nil {
		slog.WarnContext(ctx, "failed to write reminder outcome to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("medication_id", record.MedicationID),
			slog.String("outcome", record.Outcome.String()),
		)
	}
	return nil
}

func outcomePoint(record domain.OutcomeRecord) *write.Point {
	return influxdb2.NewPoint(
		outcomeMeasurement,
		map[string]string{
			"action":     record.Action.String(),
			"outcome":    record.Outcome.String(),
			"clock_time": record.ClockTime,
			"snoozed":    strconv.FormatBool(record.Snoozed),
		},
		map[string]any{
			"medication_id": record.MedicationID,
			"user_id":       record.UserID,
			"count":         1,
		},
		record.HandledAt,
	)
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
