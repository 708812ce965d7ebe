package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

const (
	taskTypeMedication = "medication_reminder"
	taskTypeSnooze     = "medication_snooze"
)

var (
	ErrQueueUnavailable = errors.New("task queue unavailable")
	ErrMissingUserID    = errors.New("alert has no user id")
)

var invalidTaskNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

type TaskQueue interface {
	RegisterNotification(ctx context.Context, task *NotificationTask) (*TaskResponse, error)
}

// Notifier turns fired alerts into immediate push tasks.
type Notifier struct {
	queue TaskQueue
}

func NewNotifier(queue TaskQueue) *Notifier {
	return &Notifier{queue: queue}
}

func (n *Notifier) Notify(ctx context.Context, alert *domain.DeliveredAlert) error {
	if alert == nil {
		return nil
	}
	if alert.Occurrence.Payload.UserID == "" {
		return fmt.Errorf("%w: %s", ErrMissingUserID, alert.InstanceID)
	}

	if _, err := n.queue.RegisterNotification(ctx, NewNotificationTask(alert)); err != nil {
		return fmt.Errorf("failed to push alert %s: %w", alert.InstanceID, err)
	}
	return nil
}

func NewNotificationTask(alert *domain.DeliveredAlert) *NotificationTask {
	p := alert.Occurrence.Payload

	taskType := taskTypeMedication
	if p.Snoozed {
		taskType = taskTypeSnooze
	}

	return &NotificationTask{
		InstanceID:   alert.InstanceID,
		UserID:       p.UserID,
		MedicationID: p.MedicationID,
		Title:        alert.Occurrence.Title,
		Body:         alert.Occurrence.Body,
		ClockTime:    p.ClockTime,
		TaskType:     taskType,
		Snoozed:      p.Snoozed,
		ResponseID:   alert.InstanceID,
	}
}

// TaskName derives a queue-safe task name from an instance id so that a
// retried push of the same instance is deduplicated by the queue.
func TaskName(instanceID string) string {
	return "push-" + invalidTaskNameChars.ReplaceAllString(instanceID, "_")
}
