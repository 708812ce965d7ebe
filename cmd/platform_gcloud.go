//go:build gcloud

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/KasumiMercury/primind-medication-reminder/internal/config"
	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/handler"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/alertstore"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/logging"
)

func initTaskQueue(ctx context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	cloudTasksClient, err := taskqueue.NewCloudTasksClient(ctx, taskqueue.CloudTasksConfig{
		ProjectID:  cfg.TaskQueue.GCloudProjectID,
		LocationID: cfg.TaskQueue.GCloudLocationID,
		QueueID:    cfg.TaskQueue.GCloudQueueID,
		TargetURL:  cfg.TaskQueue.GCloudTargetURL,
		MaxRetries: cfg.TaskQueue.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("task queue initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.TaskQueue.GCloudProjectID),
		slog.String("location", cfg.TaskQueue.GCloudLocationID),
		slog.String("queue", cfg.TaskQueue.GCloudQueueID),
	)

	return cloudTasksClient, cloudTasksClient.Close, nil
}

// initAlertStore arms occurrences as Cloud Tasks when configured. Cloud Tasks
// then fires them through the webhook served by the returned firer.
func initAlertStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (domain.AlertStore, handler.AlertFirer, func() error, error) {
	if cfg.AlertStore.Backend != config.AlertStoreCloudTasks {
		store, err := newPolledStore(cfg, redisClient)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, nil, nil
	}

	store, err := alertstore.NewCloudTasksStore(ctx, alertstore.CloudTasksConfig{
		ProjectID:           cfg.TaskQueue.GCloudProjectID,
		LocationID:          cfg.TaskQueue.GCloudLocationID,
		QueueID:             cfg.AlertStore.FireQueueID,
		FireURL:             cfg.AlertStore.FireURL,
		MaxRetries:          cfg.TaskQueue.MaxRetries,
		ServiceAccountEmail: cfg.AlertStore.FireInvoker,
	}, redisClient, cfg.Reminder.Location)
	if err != nil {
		return nil, nil, nil, err
	}

	slog.Info("alert store initialized",
		slog.String("type", string(cfg.AlertStore.Backend)),
		slog.String("queue", cfg.AlertStore.FireQueueID),
	)

	return store, store, store.Close, nil
}

// Cloud Run forwards HTTP/2 as cleartext.
func wrapHandler(h http.Handler) http.Handler {
	return h2c.NewHandler(h, &http2.Server{})
}

func initObservability(ctx context.Context, level slog.Level) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "medication-reminder"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  projectID,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("medication-reminder"),
		LogLevel:      level,
	})
}
