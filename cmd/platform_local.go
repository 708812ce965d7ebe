//go:build !gcloud

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-medication-reminder/internal/config"
	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/handler"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/logging"
)

func initTaskQueue(_ context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	if cfg.TaskQueue.PrimindTasksURL == "" {
		slog.Warn("PRIMIND_TASKS_URL not set, push notifications disabled")

		return nil, nil, nil
	}

	tq := taskqueue.NewPrimindTasksClient(
		cfg.TaskQueue.PrimindTasksURL,
		cfg.TaskQueue.QueueName,
		cfg.TaskQueue.MaxRetries,
	)

	slog.Info("task queue initialized",
		slog.String("type", "primind_tasks"),
		slog.String("url", cfg.TaskQueue.PrimindTasksURL),
		slog.String("queue", cfg.TaskQueue.QueueName),
	)

	return tq, tq.Close, nil
}

// initAlertStore returns no firer: local stores are fired by the dispatcher.
func initAlertStore(_ context.Context, cfg *config.Config, redisClient *redis.Client) (domain.AlertStore, handler.AlertFirer, func() error, error) {
	if cfg.AlertStore.Backend == config.AlertStoreCloudTasks {
		return nil, nil, nil, fmt.Errorf("alert store %q requires the gcloud build", cfg.AlertStore.Backend)
	}

	store, err := newPolledStore(cfg, redisClient)
	if err != nil {
		return nil, nil, nil, err
	}

	slog.Info("alert store initialized",
		slog.String("type", string(cfg.AlertStore.Backend)),
		slog.Duration("dispatch_interval", cfg.AlertStore.DispatchInterval),
		slog.Int("dispatch_batch_size", cfg.AlertStore.DispatchBatchSize),
	)

	return store, nil, nil, nil
}

func wrapHandler(h http.Handler) http.Handler {
	return h
}

func initObservability(ctx context.Context, level slog.Level) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "medication-reminder"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment:   env,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("medication-reminder"),
		LogLevel:      level,
	})
}
