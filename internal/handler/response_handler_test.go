package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

func TestHandleResponse(t *testing.T) {
	tests := []struct {
		name          string
		body          any
		expectedEvent domain.ResponseEvent
		outcome       domain.Outcome
	}{
		{
			name: "acknowledge normalizes payload",
			body: map[string]any{
				"action":      "tomar",
				"instance_id": "med-1-0800-daily@1710057600",
				"payload": map[string]any{
					"medication_id": "med-1",
					"user_id":       "user-1",
					"clock_time":    "8:00",
				},
			},
			expectedEvent: domain.ResponseEvent{
				Action:     domain.ActionAcknowledge,
				InstanceID: "med-1-0800-daily@1710057600",
				Payload:    domain.Payload{MedicationID: "med-1", UserID: "user-1", ClockTime: "08:00"},
			},
			outcome: domain.OutcomeAcknowledged,
		},
		{
			name: "unknown action opens the alert",
			body: map[string]any{
				"action":  "open",
				"payload": map[string]any{"medication_id": "med-1", "clock_time": "20:00"},
			},
			expectedEvent: domain.ResponseEvent{
				Action:  domain.ActionNone,
				Payload: domain.Payload{MedicationID: "med-1", ClockTime: "20:00"},
			},
			outcome: domain.OutcomeDismissed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			deps.reminders.On("HandleInboundResponse", mock.Anything, tt.expectedEvent).Return(tt.outcome, nil)

			w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/responses", "user-1", tt.body)

			require.Equal(t, http.StatusOK, w.Code)
			var resp outcomeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.outcome, resp.Outcome)
			deps.reminders.AssertExpectations(t)
		})
	}
}

func TestHandleResponseValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "malformed json", body: "{"},
		{name: "missing medication id", body: map[string]any{"action": "snooze", "payload": map[string]any{}}},
		{name: "invalid clock time", body: map[string]any{"payload": map[string]any{"medication_id": "med-1", "clock_time": "8h"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)

			w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/responses", "user-1", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			deps.reminders.AssertNotCalled(t, "HandleInboundResponse", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleResponseUnauthenticated(t *testing.T) {
	deps := newTestDeps(t)
	deps.reminders.On("HandleInboundResponse", mock.Anything, mock.Anything).
		Return(domain.OutcomeDelivered, fmt.Errorf("failed to record intake: %w", domain.ErrUnauthenticated))

	body := map[string]any{"action": "acknowledge", "payload": map[string]any{"medication_id": "med-1"}}
	w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/responses", "", body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleAlarmAction(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedAction domain.Action
		expectedStatus int
	}{
		{
			name: "snooze from medicamento",
			body: map[string]any{
				"action": "adiar",
				"medicamento": map[string]any{
					"medicamentoId": "med-1",
					"nome":          "Aspirin",
					"dosagem":       "1 tablet",
					"horario":       "08:00",
					"userId":        "user-1",
				},
			},
			expectedAction: domain.ActionSnooze,
			expectedStatus: http.StatusOK,
		},
		{
			name: "take from medication",
			body: map[string]any{
				"action":     "tomar",
				"medication": map[string]any{"medicamentoId": "med-1", "horario": "8:00"},
			},
			expectedAction: domain.ActionAcknowledge,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unsupported action",
			body:           map[string]any{"action": "abrir", "medicamento": map[string]any{"medicamentoId": "med-1"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing medication",
			body:           map[string]any{"action": "tomar"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			deps.reminders.On("HandleInboundResponse", mock.Anything, mock.MatchedBy(func(e domain.ResponseEvent) bool {
				return e.Action == tt.expectedAction && e.Payload.MedicationID == "med-1" && e.Payload.ClockTime == "08:00"
			})).Return(domain.OutcomeSnoozed, nil).Maybe()

			w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/alarm-actions", "user-1", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				deps.reminders.AssertNumberOfCalls(t, "HandleInboundResponse", 1)
			} else {
				deps.reminders.AssertNotCalled(t, "HandleInboundResponse", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandleFire(t *testing.T) {
	occ := domain.Occurrence{
		ID:        "med-1-0800-daily",
		Payload:   domain.Payload{MedicationID: "med-1", UserID: "user-1", ClockTime: "08:00"},
		Recurring: true,
	}

	t.Run("disabled without firer", func(t *testing.T) {
		deps := newTestDeps(t)

		w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/alerts/fire", "", occ)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("fires and delivers", func(t *testing.T) {
		deps := newTestDeps(t)
		firer := &mockAlertFirer{}
		deps.firer = firer

		alert := domain.NewDeliveredAlert(occ, deps.now)
		firer.On("Fire", mock.Anything, mock.MatchedBy(func(o *domain.Occurrence) bool {
			return o.ID == occ.ID && o.Recurring
		}), deps.now).Return(alert, nil)
		deps.reminders.On("Deliver", mock.Anything, alert).Return(nil)

		w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/alerts/fire", "", occ)

		require.Equal(t, http.StatusOK, w.Code)
		var resp domain.DeliveredAlert
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, alert.InstanceID, resp.InstanceID)
		firer.AssertExpectations(t)
		deps.reminders.AssertExpectations(t)
	})

	t.Run("rejects missing id", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.firer = &mockAlertFirer{}

		w := doRequest(t, deps.router(t), http.MethodPost, "/api/v1/alerts/fire", "", domain.Occurrence{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
