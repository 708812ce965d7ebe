package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/tracing"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/adherence"
)

type IntakeRecorder interface {
	Record(ctx context.Context, payload domain.Payload) (*domain.AdherenceRecord, error)
}

type Snoozer interface {
	Snooze(ctx context.Context, payload domain.Payload) (*domain.Occurrence, error)
}

type BatchGrouper interface {
	Group(ctx context.Context, fired domain.Payload) *domain.ModalBatch
}

// Router drives one ResponseEvent from Delivered to a terminal outcome.
type Router struct {
	recorder IntakeRecorder
	snoozer  Snoozer
	grouper  BatchGrouper
	store    domain.AlertStore
	outcomes domain.OutcomeRecorder
	metrics  *metrics.ReminderMetrics
	now      func() time.Time

	mu         sync.RWMutex
	presenters map[uint64]domain.Presenter
	nextID     uint64
}

func NewRouter(
	recorder IntakeRecorder,
	snoozer Snoozer,
	grouper BatchGrouper,
	store domain.AlertStore,
	outcomes domain.OutcomeRecorder,
	m *metrics.ReminderMetrics,
) *Router {
	return &Router{
		recorder:   recorder,
		snoozer:    snoozer,
		grouper:    grouper,
		store:      store,
		outcomes:   outcomes,
		metrics:    m,
		now:        time.Now,
		presenters: make(map[uint64]domain.Presenter),
	}
}

// Subscribe registers p to receive grouped prompts until the returned func is
// called.
func (r *Router) Subscribe(p domain.Presenter) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.presenters[id] = p
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.presenters, id)
			r.mu.Unlock()
		})
	}
}

func (r *Router) Route(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	ctx, span := tracing.StartResponseSpan(ctx, event.Action.String(), event.InstanceID, event.Payload.MedicationID)

	outcome, err := r.route(ctx, event)

	tracing.RecordResponseResult(span, outcome.String(), err)
	if err == nil {
		r.metrics.RecordResponse(ctx, event.Action.String(), outcome.String())
		r.recordOutcome(ctx, event, outcome)
	}

	return outcome, err
}

func (r *Router) route(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	switch event.Action {
	case domain.ActionAcknowledge:
		return r.acknowledge(ctx, event)
	case domain.ActionSnooze:
		return r.snooze(ctx, event)
	default:
		return r.present(ctx, event)
	}
}

func (r *Router) acknowledge(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	if _, err := r.recorder.Record(ctx, event.Payload); err != nil {
		if !errors.Is(err, adherence.ErrDuplicateIntake) {
			// The fired instance stays pending so the dose is not lost.
			return domain.OutcomeDelivered, fmt.Errorf("failed to record intake: %w", err)
		}
	}

	r.retire(ctx, event)

	slog.InfoContext(ctx, "alert acknowledged",
		slog.String("instance_id", event.InstanceID),
		slog.String("medication_id", event.Payload.MedicationID),
		slog.String("user_id", event.Payload.UserID),
	)

	return domain.OutcomeAcknowledged, nil
}

func (r *Router) snooze(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	if _, err := r.snoozer.Snooze(ctx, event.Payload); err != nil {
		return domain.OutcomeDelivered, err
	}

	r.retire(ctx, event)

	return domain.OutcomeSnoozed, nil
}

func (r *Router) present(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	r.mu.RLock()
	presenters := make([]domain.Presenter, 0, len(r.presenters))
	for _, p := range r.presenters {
		presenters = append(presenters, p)
	}
	r.mu.RUnlock()

	if len(presenters) == 0 {
		slog.InfoContext(ctx, "no presenter registered, alert dismissed",
			slog.String("instance_id", event.InstanceID),
			slog.String("medication_id", event.Payload.MedicationID),
		)
		return domain.OutcomeDismissed, nil
	}

	batch := r.grouper.Group(ctx, event.Payload)
	r.metrics.RecordBatchSize(ctx, batch.Size())

	shown := false
	for _, p := range presenters {
		if p.Present(ctx, batch) {
			shown = true
		}
	}

	if !shown {
		slog.InfoContext(ctx, "no presenter accepted the prompt, alert dismissed",
			slog.String("instance_id", event.InstanceID),
			slog.String("user_id", event.Payload.UserID),
		)
		return domain.OutcomeDismissed, nil
	}

	slog.InfoContext(ctx, "prompt presented",
		slog.String("instance_id", event.InstanceID),
		slog.String("user_id", batch.UserID),
		slog.String("clock_time", batch.ClockTime),
		slog.Int("batch_size", batch.Size()),
	)

	return domain.OutcomePresented, nil
}

// retire drops the fired instance. Failures are logged only: the response has
// already taken effect and the instance expires on its own.
func (r *Router) retire(ctx context.Context, event domain.ResponseEvent) {
	if event.InstanceID == "" {
		return
	}
	if err := r.store.Retire(ctx, event.InstanceID); err != nil {
		slog.WarnContext(ctx, "failed to retire fired alert",
			slog.String("instance_id", event.InstanceID),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Router) recordOutcome(ctx context.Context, event domain.ResponseEvent, outcome domain.Outcome) {
	if r.outcomes == nil {
		return
	}

	err := r.outcomes.RecordOutcome(ctx, domain.OutcomeRecord{
		MedicationID: event.Payload.MedicationID,
		UserID:       event.Payload.UserID,
		ClockTime:    event.Payload.ClockTime,
		Action:       event.Action,
		Outcome:      outcome,
		Snoozed:      event.Payload.Snoozed,
		HandledAt:    r.now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record response outcome",
			slog.String("medication_id", event.Payload.MedicationID),
			slog.String("outcome", outcome.String()),
			slog.String("error", err.Error()),
		)
	}
}
