//go:build gcloud

package alertstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	FireURL    string // webhook Cloud Tasks calls when an occurrence is due
	MaxRetries int

	// ServiceAccountEmail signs an OIDC token for the webhook when set.
	ServiceAccountEmail string
}

// CloudTasksStore arms each occurrence as a Cloud Task scheduled at its fire
// time. Cloud Tasks does the firing by calling the fire webhook, which hands
// the occurrence back through Fire.
//
// Cloud Tasks refuses to reuse a task name for a while after the task was
// deleted or executed, so every arm gets a fresh name and replaces the older
// tasks of the same occurrence.
type CloudTasksStore struct {
	client     *cloudtasks.Client
	delivered  *deliveredLedger
	queuePath  string
	fireURL    string
	invoker    string
	maxRetries int
	loc        *time.Location
	now        func() time.Time
}

var _ domain.AlertStore = (*CloudTasksStore)(nil)

func NewCloudTasksStore(ctx context.Context, cfg CloudTasksConfig, redisClient *redis.Client, loc *time.Location, opts ...option.ClientOption) (*CloudTasksStore, error) {
	client, err := cloudtasks.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if loc == nil {
		loc = time.Local
	}

	return &CloudTasksStore{
		client:     client,
		delivered:  newDeliveredLedger(redisClient),
		queuePath:  fmt.Sprintf("projects/%s/locations/%s/queues/%s", cfg.ProjectID, cfg.LocationID, cfg.QueueID),
		fireURL:    cfg.FireURL,
		invoker:    cfg.ServiceAccountEmail,
		maxRetries: maxRetries,
		loc:        loc,
		now:        time.Now,
	}, nil
}

func (s *CloudTasksStore) Close() error {
	return s.client.Close()
}

// Schedule arms occ under a new task and then removes any other task armed
// for the same occurrence.
func (s *CloudTasksStore) Schedule(ctx context.Context, occ *domain.Occurrence) (string, error) {
	return s.arm(ctx, occ, time.Time{})
}

// arm creates the task for occ and cancels the older tasks of the same
// occurrence, except one firing at keep.
func (s *CloudTasksStore) arm(ctx context.Context, occ *domain.Occurrence, keep time.Time) (string, error) {
	if occ.ID == "" {
		return "", ErrMissingOccurrenceID
	}

	body, err := json.Marshal(toOccurrenceRecord(occ, s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to marshal occurrence: %w", err)
	}

	httpReq := &taskspb.HttpRequest{
		HttpMethod: taskspb.HttpMethod_POST,
		Url:        s.fireURL,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: body,
	}
	if s.invoker != "" {
		httpReq.AuthorizationHeader = &taskspb.HttpRequest_OidcToken{
			OidcToken: &taskspb.OidcToken{
				ServiceAccountEmail: s.invoker,
				Audience:            s.fireURL,
			},
		}
	}

	handle := taskID(occ)
	req := &taskspb.CreateTaskRequest{
		Parent: s.queuePath,
		Task: &taskspb.Task{
			Name:         s.taskPath(handle),
			ScheduleTime: timestamppb.New(occ.FireAt),
			MessageType:  &taskspb.Task_HttpRequest{HttpRequest: httpReq},
		},
	}

	err = s.retry(ctx, "create", handle, func() error {
		_, err := s.client.CreateTask(ctx, req)
		if status.Code(err) == codes.AlreadyExists {
			return s.confirmExisting(ctx, handle, body)
		}
		return err
	})
	if err != nil {
		return "", unavailable("failed to arm occurrence", err)
	}

	if err := s.cancelOlder(ctx, occ.ID, handle, keep); err != nil {
		return "", err
	}

	slog.Debug("occurrence task registered to Cloud Tasks",
		slog.String("task_id", handle),
		slog.String("occurrence_id", occ.ID),
		slog.Time("fire_at", occ.FireAt),
	)

	return handle, nil
}

// confirmExisting accepts an AlreadyExists answer only when the task holds
// this very body, which happens when an earlier attempt's response was lost.
func (s *CloudTasksStore) confirmExisting(ctx context.Context, handle string, body []byte) error {
	existing, err := s.client.GetTask(ctx, &taskspb.GetTaskRequest{
		Name:         s.taskPath(handle),
		ResponseView: taskspb.Task_FULL,
	})
	if err != nil {
		return fmt.Errorf("%w: task %s already exists and cannot be read: %w", ErrTaskNameTaken, handle, err)
	}
	if !bytes.Equal(existing.GetHttpRequest().GetBody(), body) {
		return fmt.Errorf("%w: %s", ErrTaskNameTaken, handle)
	}

	slog.Debug("occurrence task already exists",
		slog.String("task_id", handle),
	)
	return nil
}

func (s *CloudTasksStore) cancelOlder(ctx context.Context, occurrenceID, current string, keep time.Time) error {
	tasks, err := s.listTasks(ctx)
	if err != nil {
		return err
	}

	for handle, record := range tasks {
		if handle == current || record.ID != occurrenceID {
			continue
		}
		if !keep.IsZero() && record.FireAt.Equal(keep) {
			continue
		}
		if err := s.deleteTask(ctx, handle); err != nil {
			return unavailable("failed to replace occurrence task", err)
		}
	}
	return nil
}

func (s *CloudTasksStore) Cancel(ctx context.Context, handle string) error {
	if err := s.deleteTask(ctx, handle); err != nil {
		return unavailable("failed to cancel occurrence", err)
	}
	return nil
}

func (s *CloudTasksStore) CancelByMatch(ctx context.Context, match func(domain.Payload) bool) (int, error) {
	tasks, err := s.listTasks(ctx)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for handle, record := range tasks {
		if !match(record.Payload) {
			continue
		}
		if err := s.deleteTask(ctx, handle); err != nil {
			return canceled, unavailable("failed to cancel occurrence", err)
		}
		canceled++
	}
	return canceled, nil
}

func (s *CloudTasksStore) ListArmed(ctx context.Context) ([]*domain.Occurrence, error) {
	tasks, err := s.listTasks(ctx)
	if err != nil {
		return nil, err
	}

	// Between creating a replacement and deleting the old task both exist.
	latest := make(map[string]occurrenceRecord, len(tasks))
	for _, record := range tasks {
		if prev, ok := latest[record.ID]; ok && prev.ArmedAt.After(record.ArmedAt) {
			continue
		}
		latest[record.ID] = record
	}

	result := make([]*domain.Occurrence, 0, len(latest))
	for _, record := range latest {
		result = append(result, record.toDomain())
	}
	sortOccurrences(result)
	return result, nil
}

func (s *CloudTasksStore) Retire(ctx context.Context, instanceID string) error {
	return s.delivered.retire(ctx, instanceID)
}

func (s *CloudTasksStore) ListDelivered(ctx context.Context, userID string) ([]*domain.DeliveredAlert, error) {
	return s.delivered.list(ctx, userID, s.now())
}

// Fire handles an occurrence delivered by the fire webhook: it re-arms a
// recurring occurrence for its next day and records the fired instance. The
// task being executed is left alone; a repeated delivery of it replaces the
// next day's task instead of adding a second one.
func (s *CloudTasksStore) Fire(ctx context.Context, occ *domain.Occurrence, now time.Time) (*domain.DeliveredAlert, error) {
	if occ.Recurring {
		next, err := occ.NextFireAt(now, s.loc)
		if err != nil {
			return nil, err
		}
		rearmed := *occ
		rearmed.FireAt = next
		if _, err := s.arm(ctx, &rearmed, occ.FireAt); err != nil {
			return nil, err
		}
	}

	alert := domain.NewDeliveredAlert(*occ, now)
	if err := s.delivered.save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *CloudTasksStore) listTasks(ctx context.Context) (map[string]occurrenceRecord, error) {
	it := s.client.ListTasks(ctx, &taskspb.ListTasksRequest{
		Parent:       s.queuePath,
		ResponseView: taskspb.Task_FULL,
	})

	tasks := make(map[string]occurrenceRecord)
	for {
		task, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, unavailable("failed to list occurrence tasks", err)
		}

		handle := task.GetName()[strings.LastIndex(task.GetName(), "/")+1:]
		var record occurrenceRecord
		if err := json.Unmarshal(task.GetHttpRequest().GetBody(), &record); err != nil {
			slog.Warn("skipping task with unreadable occurrence body",
				slog.String("task_id", handle),
				slog.String("error", err.Error()),
			)
			continue
		}
		tasks[handle] = record
	}
	return tasks, nil
}

func (s *CloudTasksStore) deleteTask(ctx context.Context, handle string) error {
	return s.retry(ctx, "delete", handle, func() error {
		err := s.client.DeleteTask(ctx, &taskspb.DeleteTaskRequest{Name: s.taskPath(handle)})
		if status.Code(err) == codes.NotFound {
			slog.Info("task not found in Cloud Tasks (may have been processed)",
				slog.String("task_id", handle),
			)
			return nil
		}
		return err
	})
}

func (s *CloudTasksStore) retry(ctx context.Context, operation, handle string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.Debug("retrying cloud tasks operation",
				slog.String("operation", operation),
				slog.String("task_id", handle),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		slog.Warn("cloud tasks operation failed",
			slog.String("operation", operation),
			slog.String("task_id", handle),
			slog.String("error", lastErr.Error()),
		)
	}

	return fmt.Errorf("%s task after %d retries: %w", operation, s.maxRetries, lastErr)
}

func (s *CloudTasksStore) taskPath(handle string) string {
	return s.queuePath + "/tasks/" + handle
}

// taskID derives a valid Cloud Tasks id ([A-Za-z0-9_-]) from the occurrence,
// unique per arm.
func taskID(occ *domain.Occurrence) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, occ.ID)
	return fmt.Sprintf("%s-%d-%s", id, occ.FireAt.Unix(), uuid.NewString())
}
