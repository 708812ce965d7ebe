package taskqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type recordingQueue struct {
	tasks []*NotificationTask
	err   error
}

func (q *recordingQueue) RegisterNotification(_ context.Context, task *NotificationTask) (*TaskResponse, error) {
	q.tasks = append(q.tasks, task)
	if q.err != nil {
		return nil, q.err
	}
	return &TaskResponse{Name: TaskName(task.InstanceID)}, nil
}

func testAlert(snoozed bool) *domain.DeliveredAlert {
	occ := domain.Occurrence{
		ID: "med-1-0800-daily",
		Payload: domain.Payload{
			MedicationID: "med-1",
			UserID:       "user-1",
			Name:         "Aspirin",
			Dosage:       "1 tablet",
			ClockTime:    "08:00",
			Snoozed:      snoozed,
		},
		Title:  "💊 Aspirin",
		Body:   "Time to take your medication",
		FireAt: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	return domain.NewDeliveredAlert(occ, occ.FireAt)
}

func TestNotifierNotify(t *testing.T) {
	tests := []struct {
		name         string
		alert        *domain.DeliveredAlert
		expectedType string
	}{
		{name: "scheduled dose", alert: testAlert(false), expectedType: taskTypeMedication},
		{name: "snoozed dose", alert: testAlert(true), expectedType: taskTypeSnooze},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &recordingQueue{}
			notifier := NewNotifier(queue)

			if err := notifier.Notify(context.Background(), tt.alert); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(queue.tasks) != 1 {
				t.Fatalf("expected 1 task, got %d", len(queue.tasks))
			}

			task := queue.tasks[0]
			if task.TaskType != tt.expectedType {
				t.Errorf("expected task type %q, got %q", tt.expectedType, task.TaskType)
			}
			if task.ResponseID != tt.alert.InstanceID {
				t.Errorf("expected response id %q, got %q", tt.alert.InstanceID, task.ResponseID)
			}
			if task.Title != "💊 Aspirin" || task.UserID != "user-1" || task.MedicationID != "med-1" {
				t.Errorf("unexpected task contents: %+v", task)
			}
			if !task.ScheduleAt.IsZero() {
				t.Errorf("expected immediate task, got schedule %v", task.ScheduleAt)
			}
		})
	}
}

func TestNotifierNotifyErrors(t *testing.T) {
	queueErr := errors.New("queue down")
	notifier := NewNotifier(&recordingQueue{err: queueErr})

	err := notifier.Notify(context.Background(), testAlert(false))
	if !errors.Is(err, queueErr) {
		t.Errorf("expected wrapped queue error, got %v", err)
	}

	alert := testAlert(false)
	alert.Occurrence.Payload.UserID = ""
	err = notifier.Notify(context.Background(), alert)
	if !errors.Is(err, ErrMissingUserID) {
		t.Errorf("expected ErrMissingUserID, got %v", err)
	}

	if err := notifier.Notify(context.Background(), nil); err != nil {
		t.Errorf("expected nil alert to be ignored, got %v", err)
	}
}

func TestTaskName(t *testing.T) {
	tests := []struct {
		instanceID string
		expected   string
	}{
		{instanceID: "med-1-0800-daily@1710057600", expected: "push-med-1-0800-daily_1710057600"},
		{instanceID: "a.b/c", expected: "push-a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.instanceID, func(t *testing.T) {
			if got := TaskName(tt.instanceID); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
