//go:build !gcloud

package taskqueue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestPrimindTasksClientRegisterNotification(t *testing.T) {
	var received PrimindTaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/reminders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{
			Name:       received.Task.Name,
			CreateTime: "2024-03-10T08:00:00Z",
		})
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "reminders", 1)
	task := NewNotificationTask(testAlert(false))

	resp, err := client.RegisterNotification(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != "push-med-1-0800-daily_1710057600" {
		t.Errorf("unexpected task name %q", resp.Name)
	}

	body, err := base64.StdEncoding.DecodeString(received.Task.HTTPRequest.Body)
	if err != nil {
		t.Fatalf("body is not base64: %v", err)
	}
	var decoded NotificationTask
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("body is not a notification task: %v", err)
	}
	if decoded.ResponseID != task.InstanceID || decoded.Title != task.Title {
		t.Errorf("unexpected body %+v", decoded)
	}
	if received.Task.ScheduleTime != "" {
		t.Errorf("expected no schedule time, got %q", received.Task.ScheduleTime)
	}
}

func TestPrimindTasksClientConflictIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "default", 1)
	if _, err := client.RegisterNotification(context.Background(), NewNotificationTask(testAlert(false))); err != nil {
		t.Fatalf("expected conflict to be treated as registered, got %v", err)
	}
}

func TestPrimindTasksClientRetriesAndTrips(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPrimindTasksClient(server.URL, "default", 3)
	task := NewNotificationTask(testAlert(false))

	for range 2 {
		if _, err := client.RegisterNotification(context.Background(), task); err == nil {
			t.Fatal("expected error from failing server")
		}
	}
	if got := calls.Load(); got != 6 {
		t.Fatalf("expected 6 attempts, got %d", got)
	}

	_, err := client.RegisterNotification(context.Background(), task)
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Errorf("expected open circuit to report ErrQueueUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 6 {
		t.Errorf("expected no request while circuit is open, got %d", got)
	}
}
