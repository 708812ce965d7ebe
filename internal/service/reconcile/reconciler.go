package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/schedule"
)

// Reconciler makes the armed set for a medication match its current schedule.
type Reconciler struct {
	store    domain.AlertStore
	compiler *schedule.Compiler
	metrics  *metrics.ReminderMetrics
}

func NewReconciler(store domain.AlertStore, compiler *schedule.Compiler, m *metrics.ReminderMetrics) *Reconciler {
	return &Reconciler{
		store:    store,
		compiler: compiler,
		metrics:  m,
	}
}

// CancelAll disarms every occurrence belonging to medicationID.
func (r *Reconciler) CancelAll(ctx context.Context, medicationID string) (int, error) {
	canceled, err := r.store.CancelByMatch(ctx, matchMedication(medicationID))
	if err != nil {
		return 0, fmt.Errorf("failed to cancel occurrences for medication %s: %w", medicationID, err)
	}

	r.metrics.RecordOccurrencesCanceled(ctx, "medication", canceled)

	slog.InfoContext(ctx, "canceled medication occurrences",
		slog.String("medication_id", medicationID),
		slog.Int("canceled_count", canceled),
	)

	return canceled, nil
}

// Reconcile cancels the medication's armed occurrences and arms a freshly
// compiled set. If arming fails part way, the previous set is restored.
func (r *Reconciler) Reconcile(ctx context.Context, med *domain.Medication) ([]*domain.Occurrence, error) {
	start := time.Now()
	ctx, span := tracing.StartReconcileSpan(ctx, med.ID, med.Continuous, len(med.ClockTimes))

	armed, canceled, err := r.reconcile(ctx, med)

	result := "success"
	if err != nil {
		result = "failure"
	}
	r.metrics.RecordReconcileDuration(ctx, result, time.Since(start))
	tracing.RecordReconcileResult(span, canceled, len(armed), err)

	return armed, err
}

func (r *Reconciler) reconcile(ctx context.Context, med *domain.Medication) ([]*domain.Occurrence, int, error) {
	previous, err := r.snapshot(ctx, med.ID)
	if err != nil {
		return nil, 0, err
	}

	canceled, err := r.CancelAll(ctx, med.ID)
	if err != nil {
		return nil, 0, err
	}

	occurrences := r.compiler.Compile(med)

	handles := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		handle, err := r.store.Schedule(ctx, occ)
		if err != nil {
			slog.ErrorContext(ctx, "failed to arm occurrence, restoring previous schedule",
				slog.String("medication_id", med.ID),
				slog.String("occurrence_id", occ.ID),
				slog.Int("armed_before_failure", len(handles)),
				slog.String("error", err.Error()),
			)
			r.rollback(ctx, med.ID, handles, previous)
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return nil, canceled, fmt.Errorf("failed to arm occurrence %s: %w", occ.ID, err)
			}
			return nil, canceled, fmt.Errorf("failed to arm occurrence %s: %w: %w", occ.ID, domain.ErrStoreUnavailable, err)
		}
		handles = append(handles, handle)
	}

	recurring := len(occurrences) > 0 && occurrences[0].Recurring
	r.metrics.RecordOccurrencesArmed(ctx, recurring, len(occurrences))

	slog.InfoContext(ctx, "medication schedule reconciled",
		slog.String("medication_id", med.ID),
		slog.String("user_id", med.UserID),
		slog.Int("canceled_count", canceled),
		slog.Int("armed_count", len(occurrences)),
	)

	return occurrences, canceled, nil
}

func (r *Reconciler) snapshot(ctx context.Context, medicationID string) ([]*domain.Occurrence, error) {
	all, err := r.store.ListArmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot armed occurrences: %w", err)
	}

	match := matchMedication(medicationID)
	previous := make([]*domain.Occurrence, 0)
	for _, occ := range all {
		if match(occ.Payload) {
			previous = append(previous, occ)
		}
	}
	return previous, nil
}

func (r *Reconciler) rollback(ctx context.Context, medicationID string, handles []string, previous []*domain.Occurrence) {
	for _, handle := range handles {
		if err := r.store.Cancel(ctx, handle); err != nil {
			slog.WarnContext(ctx, "failed to cancel partially armed occurrence",
				slog.String("medication_id", medicationID),
				slog.String("handle", handle),
				slog.String("error", err.Error()),
			)
		}
	}

	restored := 0
	for _, occ := range previous {
		if _, err := r.store.Schedule(ctx, occ); err != nil {
			slog.WarnContext(ctx, "failed to restore previous occurrence",
				slog.String("medication_id", medicationID),
				slog.String("occurrence_id", occ.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		restored++
	}

	slog.InfoContext(ctx, "previous schedule restored",
		slog.String("medication_id", medicationID),
		slog.Int("restored_count", restored),
		slog.Int("previous_count", len(previous)),
	)
}

func matchMedication(medicationID string) func(domain.Payload) bool {
	return func(p domain.Payload) bool {
		return p.MedicationID == medicationID
	}
}
