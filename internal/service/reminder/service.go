package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/reconcile"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/router"
)

const maxStoreAttempts = 2

// Service is the entry point the rest of the application uses to schedule
// medication alerts and feed back the user's responses.
type Service struct {
	reconciler *reconcile.Reconciler
	router     *router.Router
	store      domain.AlertStore
	gate       domain.PermissionGate
	notifier   domain.Notifier

	mu           sync.Mutex
	granted      map[string]bool
	deniedLogged map[string]bool
}

// NewService wires the reminder facade. notifier may be nil when alerts are
// only surfaced through presenters.
func NewService(
	reconciler *reconcile.Reconciler,
	router *router.Router,
	store domain.AlertStore,
	gate domain.PermissionGate,
	notifier domain.Notifier,
) *Service {
	return &Service{
		reconciler:   reconciler,
		router:       router,
		store:        store,
		gate:         gate,
		notifier:     notifier,
		granted:      make(map[string]bool),
		deniedLogged: make(map[string]bool),
	}
}

// ScheduleForMedication (re)arms every alert for med. It must be called after
// each create or update of the medication's schedule.
func (s *Service) ScheduleForMedication(ctx context.Context, med *domain.Medication) ([]*domain.Occurrence, error) {
	if err := s.ensurePermission(ctx, med.UserID); err != nil {
		return nil, err
	}

	var armed []*domain.Occurrence
	err := withStoreRetry(ctx, "reconcile", func() error {
		var err error
		armed, err = s.reconciler.Reconcile(ctx, med)
		return err
	})
	if err != nil {
		return nil, err
	}
	return armed, nil
}

// CancelForMedication disarms every alert of a medication. Call it before the
// medication is deleted.
func (s *Service) CancelForMedication(ctx context.Context, medicationID string) (int, error) {
	var canceled int
	err := withStoreRetry(ctx, "cancel", func() error {
		var err error
		canceled, err = s.reconciler.CancelAll(ctx, medicationID)
		return err
	})
	return canceled, err
}

func (s *Service) RegisterResponsePresenter(p domain.Presenter) (unsubscribe func()) {
	return s.router.Subscribe(p)
}

func (s *Service) HandleInboundResponse(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	var outcome domain.Outcome
	err := withStoreRetry(ctx, "response", func() error {
		var err error
		outcome, err = s.router.Route(ctx, event)
		return err
	})
	return outcome, err
}

// ListArmed returns the armed occurrences of one medication, or of every
// medication when medicationID is empty.
func (s *Service) ListArmed(ctx context.Context, medicationID string) ([]*domain.Occurrence, error) {
	all, err := s.store.ListArmed(ctx)
	if err != nil {
		return nil, err
	}
	if medicationID == "" {
		return all, nil
	}

	result := make([]*domain.Occurrence, 0)
	for _, occ := range all {
		if occ.Payload.MedicationID == medicationID {
			result = append(result, occ)
		}
	}
	return result, nil
}

func (s *Service) CancelAllAlerts(ctx context.Context) (int, error) {
	canceled, err := s.store.CancelByMatch(ctx, func(domain.Payload) bool { return true })
	if err != nil {
		return 0, fmt.Errorf("failed to cancel all alerts: %w", err)
	}

	slog.WarnContext(ctx, "all armed alerts canceled",
		slog.Int("canceled_count", canceled),
	)
	return canceled, nil
}

// PendingAlerts lists alerts that fired for userID and were not answered yet.
func (s *Service) PendingAlerts(ctx context.Context, userID string) ([]*domain.DeliveredAlert, error) {
	return s.store.ListDelivered(ctx, userID)
}

// Deliver pushes a fired alert to the user's devices and routes it as an
// opened alert.
func (s *Service) Deliver(ctx context.Context, alert *domain.DeliveredAlert) error {
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			slog.WarnContext(ctx, "failed to push fired alert",
				slog.String("instance_id", alert.InstanceID),
				slog.String("user_id", alert.Occurrence.Payload.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	_, err := s.HandleInboundResponse(ctx, domain.ResponseEvent{
		Action:     domain.ActionNone,
		InstanceID: alert.InstanceID,
		Payload:    alert.Occurrence.Payload,
	})
	return err
}

func (s *Service) ensurePermission(ctx context.Context, userID string) error {
	s.mu.Lock()
	granted := s.granted[userID]
	s.mu.Unlock()
	if granted {
		return nil
	}

	allowed, err := s.gate.EnsureNotificationsAllowed(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check notification permission: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !allowed {
		if !s.deniedLogged[userID] {
			s.deniedLogged[userID] = true
			slog.WarnContext(ctx, "notification permission denied, alerts will not be scheduled",
				slog.String("user_id", userID),
			)
		}
		return domain.ErrPermissionDenied
	}

	s.granted[userID] = true
	delete(s.deniedLogged, userID)
	return nil
}

// ForgetPermission drops the cached grant so the gate is consulted again.
func (s *Service) ForgetPermission(userID string) {
	s.mu.Lock()
	delete(s.granted, userID)
	s.mu.Unlock()
}

func withStoreRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxStoreAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying alert store operation",
				slog.String("operation", operation),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, domain.ErrStoreUnavailable) {
			return lastErr
		}
	}

	slog.ErrorContext(ctx, "alert store operation failed after retry",
		slog.String("operation", operation),
		slog.String("error", lastErr.Error()),
	)
	return lastErr
}
