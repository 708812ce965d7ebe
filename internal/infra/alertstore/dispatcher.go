package alertstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/tracing"
)

const (
	defaultDispatchInterval  = time.Second
	defaultDispatchBatchSize = 100
)

// DeliverFunc hands one fired alert to the rest of the system.
type DeliverFunc func(ctx context.Context, alert *domain.DeliveredAlert) error

type DispatcherConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Dispatcher polls a FiringStore for due occurrences and delivers each fired
// instance concurrently.
type Dispatcher struct {
	store     domain.FiringStore
	deliver   DeliverFunc
	interval  time.Duration
	batchSize int
	now       func() time.Time
	metrics   *metrics.ReminderMetrics
}

func NewDispatcher(store domain.FiringStore, deliver DeliverFunc, cfg DispatcherConfig, m *metrics.ReminderMetrics) *Dispatcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultDispatchInterval
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDispatchBatchSize
	}

	return &Dispatcher{
		store:     store,
		deliver:   deliver,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
		metrics:   m,
	}
}

// Run dispatches until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx = logging.WithModule(ctx, logging.Module("dispatcher"))

	slog.InfoContext(ctx, "alert dispatcher started",
		slog.Duration("interval", d.interval),
		slog.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "alert dispatcher stopped")
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick claims every due occurrence and waits for their delivery. It returns
// the number of alerts fired.
func (d *Dispatcher) Tick(ctx context.Context) int {
	fired := 0
	for {
		now := d.now()
		claimed, err := d.store.ClaimDue(ctx, now, d.batchSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to claim due alerts",
				slog.String("error", err.Error()),
			)
		}

		var wg sync.WaitGroup
		for _, alert := range claimed {
			wg.Add(1)
			go func(alert *domain.DeliveredAlert) {
				defer wg.Done()
				d.dispatch(ctx, alert, now)
			}(alert)
		}
		wg.Wait()

		fired += len(claimed)
		if err != nil || len(claimed) < d.batchSize {
			return fired
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, alert *domain.DeliveredAlert, now time.Time) {
	ctx, span := tracing.StartDispatchSpan(ctx, alert.InstanceID, alert.Occurrence.FireAt)

	d.metrics.RecordAlertFired(ctx, alert.Occurrence.Payload.Snoozed, now.Sub(alert.Occurrence.FireAt))

	err := d.deliver(ctx, alert)
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver fired alert",
			slog.String("instance_id", alert.InstanceID),
			slog.String("medication_id", alert.Occurrence.Payload.MedicationID),
			slog.String("user_id", alert.Occurrence.Payload.UserID),
			slog.String("error", err.Error()),
		)
	} else {
		slog.InfoContext(ctx, "alert fired",
			slog.String("instance_id", alert.InstanceID),
			slog.String("medication_id", alert.Occurrence.Payload.MedicationID),
			slog.String("user_id", alert.Occurrence.Payload.UserID),
			slog.String("clock_time", alert.Occurrence.Payload.ClockTime),
		)
	}

	tracing.End(span, err)
}
