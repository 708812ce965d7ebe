package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-medication-reminder/internal/auth"
	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/presenter"
)

type mockReminderService struct {
	mock.Mock
}

func (m *mockReminderService) ScheduleForMedication(ctx context.Context, med *domain.Medication) ([]*domain.Occurrence, error) {
	args := m.Called(ctx, med)
	occs, _ := args.Get(0).([]*domain.Occurrence)
	return occs, args.Error(1)
}

func (m *mockReminderService) CancelForMedication(ctx context.Context, medicationID string) (int, error) {
	args := m.Called(ctx, medicationID)
	return args.Int(0), args.Error(1)
}

func (m *mockReminderService) HandleInboundResponse(ctx context.Context, event domain.ResponseEvent) (domain.Outcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.Outcome), args.Error(1)
}

func (m *mockReminderService) ListArmed(ctx context.Context, medicationID string) ([]*domain.Occurrence, error) {
	args := m.Called(ctx, medicationID)
	occs, _ := args.Get(0).([]*domain.Occurrence)
	return occs, args.Error(1)
}

func (m *mockReminderService) PendingAlerts(ctx context.Context, userID string) ([]*domain.DeliveredAlert, error) {
	args := m.Called(ctx, userID)
	alerts, _ := args.Get(0).([]*domain.DeliveredAlert)
	return alerts, args.Error(1)
}

func (m *mockReminderService) Deliver(ctx context.Context, alert *domain.DeliveredAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *mockReminderService) ForgetPermission(userID string) {
	m.Called(userID)
}

type mockIntakeService struct {
	mock.Mock
}

func (m *mockIntakeService) RecordManual(ctx context.Context, medicationID string, quantity int) (*domain.AdherenceRecord, error) {
	args := m.Called(ctx, medicationID, quantity)
	rec, _ := args.Get(0).(*domain.AdherenceRecord)
	return rec, args.Error(1)
}

func (m *mockIntakeService) Recent(ctx context.Context, userID string, limit int) ([]*domain.AdherenceRecord, error) {
	args := m.Called(ctx, userID, limit)
	recs, _ := args.Get(0).([]*domain.AdherenceRecord)
	return recs, args.Error(1)
}

type mockPermissionStore struct {
	mock.Mock
}

func (m *mockPermissionStore) Set(ctx context.Context, userID string, allowed bool) error {
	return m.Called(ctx, userID, allowed).Error(0)
}

type mockAlertFirer struct {
	mock.Mock
}

func (m *mockAlertFirer) Fire(ctx context.Context, occ *domain.Occurrence, now time.Time) (*domain.DeliveredAlert, error) {
	args := m.Called(ctx, occ, now)
	alert, _ := args.Get(0).(*domain.DeliveredAlert)
	return alert, args.Error(1)
}

type testDeps struct {
	reminders   *mockReminderService
	intakes     *mockIntakeService
	permissions *mockPermissionStore
	medications *domain.MockMedicationRepository
	hub         *presenter.Hub
	firer       AlertFirer
	now         time.Time
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &testDeps{
		reminders:   &mockReminderService{},
		intakes:     &mockIntakeService{},
		permissions: &mockPermissionStore{},
		medications: domain.NewMockMedicationRepository(ctrl),
		hub:         presenter.NewHub(presenter.DefaultBufferSize),
		now:         time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func (d *testDeps) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.Use(auth.Middleware(false))
	RegisterRoutes(r.Group("/api/v1"),
		NewMedicationHandler(d.reminders, d.intakes, d.medications),
		NewResponseHandler(d.reminders, d.firer, func() time.Time { return d.now }),
		NewUserHandler(d.reminders, d.intakes, d.permissions, d.hub, auth.NewContext()),
		nil,
	)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(auth.UserIDHeader, userID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
