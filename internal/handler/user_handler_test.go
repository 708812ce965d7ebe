package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-medication-reminder/internal/auth"
	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

func TestUserRoutesRequireOwner(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/v1/users/user-1/alerts/pending"},
		{method: http.MethodGet, path: "/api/v1/users/user-1/adherence"},
		{method: http.MethodPut, path: "/api/v1/users/user-1/notification-permission"},
		{method: http.MethodGet, path: "/api/v1/users/user-1/prompts"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			r := newTestDeps(t).router(t)

			w := doRequest(t, r, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = doRequest(t, r, p.method, p.path, "user-2", nil)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestPendingAlerts(t *testing.T) {
	deps := newTestDeps(t)
	occ := domain.Occurrence{ID: "med-1-0800-daily", Payload: domain.Payload{MedicationID: "med-1", UserID: "user-1"}}
	alerts := []*domain.DeliveredAlert{domain.NewDeliveredAlert(occ, deps.now)}
	deps.reminders.On("PendingAlerts", mock.Anything, "user-1").Return(alerts, nil)

	w := doRequest(t, deps.router(t), http.MethodGet, "/api/v1/users/user-1/alerts/pending", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp pendingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, alerts[0].InstanceID, resp.Alerts[0].InstanceID)
}

func TestAdherenceHistoryLimit(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedLimit  int
		expectedStatus int
	}{
		{name: "default", query: "", expectedLimit: defaultHistoryLimit, expectedStatus: http.StatusOK},
		{name: "explicit", query: "?limit=10", expectedLimit: 10, expectedStatus: http.StatusOK},
		{name: "capped", query: "?limit=500", expectedLimit: maxHistoryLimit, expectedStatus: http.StatusOK},
		{name: "zero", query: "?limit=0", expectedStatus: http.StatusBadRequest},
		{name: "not a number", query: "?limit=five", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			deps.intakes.On("Recent", mock.Anything, "user-1", tt.expectedLimit).
				Return([]*domain.AdherenceRecord{}, nil).Maybe()

			w := doRequest(t, deps.router(t), http.MethodGet, "/api/v1/users/user-1/adherence"+tt.query, "user-1", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				deps.intakes.AssertExpectations(t)
			}
		})
	}
}

func TestSetNotificationPermission(t *testing.T) {
	deps := newTestDeps(t)
	deps.permissions.On("Set", mock.Anything, "user-1", false).Return(nil)
	deps.reminders.On("ForgetPermission", "user-1").Return()
	r := deps.router(t)

	w := doRequest(t, r, http.MethodPut, "/api/v1/users/user-1/notification-permission", "user-1", map[string]bool{"allowed": false})
	require.Equal(t, http.StatusOK, w.Code)
	deps.permissions.AssertExpectations(t)
	deps.reminders.AssertExpectations(t)

	w = doRequest(t, r, http.MethodPut, "/api/v1/users/user-1/notification-permission", "user-1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamPrompts(t *testing.T) {
	deps := newTestDeps(t)
	server := httptest.NewServer(deps.router(t))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/users/user-1/prompts", nil)
	require.NoError(t, err)
	req.Header.Set(auth.UserIDHeader, "user-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && event != "":
				return event, data
			}
		}
	}

	event, _ := readEvent()
	require.Equal(t, "ready", event)
	require.Equal(t, 1, deps.hub.Subscribers("user-1"))

	batch := &domain.ModalBatch{
		UserID:    "user-1",
		ClockTime: "08:00",
		Items:     []domain.BatchItem{{MedicationID: "med-1", UserID: "user-1", Name: "Aspirin", ClockTime: "08:00"}},
	}
	require.True(t, deps.hub.Present(ctx, batch))

	event, data := readEvent()
	require.Equal(t, "prompt", event)
	var got domain.ModalBatch
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, *batch, got)

	cancel()
	assert.Eventually(t, func() bool { return deps.hub.Subscribers("user-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
