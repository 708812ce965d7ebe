package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/alertstore"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/adherence"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/grouping"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/reconcile"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/router"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/schedule"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/snooze"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

// unstableStore fails the first failures calls to ListArmed.
type unstableStore struct {
	*alertstore.MemoryStore
	failures int
	calls    int
}

func (s *unstableStore) ListArmed(ctx context.Context) ([]*domain.Occurrence, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, domain.ErrStoreUnavailable
	}
	return s.MemoryStore.ListArmed(ctx)
}

type testDeps struct {
	gate     *domain.MockPermissionGate
	notifier *domain.MockNotifier
	log      *domain.MockAdherenceLog
	repo     *domain.MockMedicationRepository
}

func newTestService(ctrl *gomock.Controller, store domain.AlertStore) (*Service, *testDeps) {
	deps := &testDeps{
		gate:     domain.NewMockPermissionGate(ctrl),
		notifier: domain.NewMockNotifier(ctrl),
		log:      domain.NewMockAdherenceLog(ctrl),
		repo:     domain.NewMockMedicationRepository(ctrl),
	}

	auth := domain.NewMockAuthContext(ctrl)
	auth.EXPECT().CurrentUser(gomock.Any()).Return("user-1", true).AnyTimes()

	now := func() time.Time { return testNow }
	compiler := schedule.NewCompiler(now, time.UTC)
	r := router.NewRouter(
		adherence.NewRecorder(deps.log, auth, nil, now, time.UTC),
		snooze.NewRescheduler(store, now),
		grouping.NewGrouper(deps.repo),
		store,
		nil,
		nil,
	)

	svc := NewService(reconcile.NewReconciler(store, compiler, nil), r, store, deps.gate, deps.notifier)
	return svc, deps
}

func continuousMedication(id, userID string, clockTimes ...string) *domain.Medication {
	return &domain.Medication{
		ID:         id,
		UserID:     userID,
		Name:       "Losartan",
		Dosage:     "50mg",
		Continuous: true,
		ClockTimes: clockTimes,
	}
}

func TestScheduleForMedication(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := alertstore.NewMemoryStore(time.UTC)
	svc, deps := newTestService(ctrl, store)
	deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(true, nil).Times(1)

	med := continuousMedication("med-1", "user-1", "08:00", "20:00")
	armed, err := svc.ScheduleForMedication(context.Background(), med)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(armed) != 2 {
		t.Fatalf("expected 2 armed, got %d", len(armed))
	}

	listed, err := svc.ListArmed(context.Background(), "med-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
	}
	for i, occ := range listed {
		if !occ.FireAt.Equal(want[i]) || !occ.Recurring {
			t.Errorf("occurrence %d: got %v recurring=%v, want %v", i, occ.FireAt, occ.Recurring, want[i])
		}
	}

	// A second medication for the same user does not consult the gate again.
	if _, err := svc.ScheduleForMedication(context.Background(), continuousMedication("med-2", "user-1", "12:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduleForMedicationPermissionDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := alertstore.NewMemoryStore(time.UTC)
	svc, deps := newTestService(ctrl, store)
	gomock.InOrder(
		deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(false, nil),
		deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(false, nil),
		deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(true, nil),
	)

	med := continuousMedication("med-1", "user-1", "08:00")
	for range 2 {
		if _, err := svc.ScheduleForMedication(context.Background(), med); !errors.Is(err, domain.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	}
	if armed, _ := store.ListArmed(context.Background()); len(armed) != 0 {
		t.Errorf("expected nothing armed while denied, got %d", len(armed))
	}

	if _, err := svc.ScheduleForMedication(context.Background(), med); err != nil {
		t.Fatalf("expected success once granted, got %v", err)
	}
}

func TestScheduleForMedicationGateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestService(ctrl, alertstore.NewMemoryStore(time.UTC))
	deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(false, errors.New("redis down"))

	_, err := svc.ScheduleForMedication(context.Background(), continuousMedication("med-1", "user-1", "08:00"))
	if err == nil || errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected gate error, got %v", err)
	}
}

func TestScheduleForMedicationRetriesStoreOnce(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "transient failure succeeds on retry", failures: 1, wantErr: false, wantCalls: 2},
		{name: "persistent failure surfaces", failures: 5, wantErr: true, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := &unstableStore{MemoryStore: alertstore.NewMemoryStore(time.UTC), failures: tt.failures}
			svc, deps := newTestService(ctrl, store)
			deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(true, nil)

			_, err := svc.ScheduleForMedication(context.Background(), continuousMedication("med-1", "user-1", "08:00"))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrStoreUnavailable) {
					t.Errorf("expected ErrStoreUnavailable, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("expected %d snapshot attempts, got %d", tt.wantCalls, store.calls)
			}
		})
	}
}

func TestCancelForMedication(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := alertstore.NewMemoryStore(time.UTC)
	svc, deps := newTestService(ctrl, store)
	deps.gate.EXPECT().EnsureNotificationsAllowed(gomock.Any(), "user-1").Return(true, nil)

	ctx := context.Background()
	if _, err := svc.ScheduleForMedication(ctx, continuousMedication("med-1", "user-1", "08:00", "14:00", "20:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ScheduleForMedication(ctx, continuousMedication("med-2", "user-1", "08:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	canceled, err := svc.CancelForMedication(ctx, "med-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canceled != 3 {
		t.Errorf("expected 3 canceled, got %d", canceled)
	}

	remaining, _ := svc.ListArmed(ctx, "med-1")
	if len(remaining) != 0 {
		t.Errorf("expected none left for med-1, got %d", len(remaining))
	}
	others, _ := svc.ListArmed(ctx, "med-2")
	if len(others) != 1 {
		t.Errorf("expected med-2 untouched, got %d", len(others))
	}

	all, err := svc.CancelAllAlerts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all != 1 {
		t.Errorf("expected 1 canceled by CancelAllAlerts, got %d", all)
	}
}

func TestDeliver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := alertstore.NewMemoryStore(time.UTC)
	svc, deps := newTestService(ctrl, store)

	alert := &domain.DeliveredAlert{
		InstanceID: "med-1-0800-daily@1710057600",
		Occurrence: domain.Occurrence{
			ID:      "med-1-0800-daily",
			Payload: domain.Payload{MedicationID: "med-1", UserID: "user-1", ClockTime: "08:00"},
		},
		FiredAt: testNow,
	}

	t.Run("push failure still routes", func(t *testing.T) {
		deps.notifier.EXPECT().Notify(gomock.Any(), alert).Return(errors.New("breaker open"))
		if err := svc.Deliver(context.Background(), alert); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("presented to registered presenter", func(t *testing.T) {
		presenter := domain.NewMockPresenter(ctrl)
		presenter.EXPECT().
			Present(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, batch *domain.ModalBatch) bool {
				return batch.Size() == 1
			})
		unsubscribe := svc.RegisterResponsePresenter(presenter)
		defer unsubscribe()

		deps.notifier.EXPECT().Notify(gomock.Any(), alert).Return(nil)
		deps.repo.EXPECT().
			FindActiveByUserAndClockTime(gomock.Any(), "user-1", "08:00").
			Return(nil, nil)

		if err := svc.Deliver(context.Background(), alert); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestHandleInboundResponseAcknowledge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := alertstore.NewMemoryStore(time.UTC)
	svc, deps := newTestService(ctrl, store)
	deps.log.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := svc.HandleInboundResponse(context.Background(), domain.ResponseEvent{
		Action:  domain.ActionAcknowledge,
		Payload: domain.Payload{MedicationID: "med-1", UserID: "user-1", ClockTime: "08:00"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.OutcomeAcknowledged {
		t.Errorf("expected Acknowledged, got %s", outcome)
	}

	pending, err := svc.PendingAlerts(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending alerts, got %d", len(pending))
	}
}
