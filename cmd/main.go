package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/primind-medication-reminder/internal/auth"
	"github.com/KasumiMercury/primind-medication-reminder/internal/config"
	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
	"github.com/KasumiMercury/primind-medication-reminder/internal/handler"
	"github.com/KasumiMercury/primind-medication-reminder/internal/health"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/alertstore"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/outcomerecorder"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/permission"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/repository"
	"github.com/KasumiMercury/primind-medication-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/logging"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/metrics"
	"github.com/KasumiMercury/primind-medication-reminder/internal/observability/middleware"
	"github.com/KasumiMercury/primind-medication-reminder/internal/presenter"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/adherence"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/grouping"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/reconcile"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/reminder"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/router"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/schedule"
	"github.com/KasumiMercury/primind-medication-reminder/internal/service/snooze"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	if err := cfg.TaskQueue.Validate(); err != nil {
		slog.Error("task queue configuration error", slog.String("error", err.Error()))
		return 1
	}

	if err := handler.RegisterValidators(); err != nil {
		slog.Error("failed to register request validators", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	reminderMetrics, err := metrics.NewReminderMetrics()
	if err != nil {
		slog.Error("failed to initialize reminder metrics", slog.String("error", err.Error()))
		return 1
	}

	// Outcome recorder (InfluxDB for local, BigQuery for gcloud)
	outcomes, err := outcomerecorder.NewRecorder(ctx, outcomerecorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize outcome recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := outcomes.Close(); err != nil {
			slog.Warn("failed to close outcome recorder", slog.String("error", err.Error()))
		}
	}()

	taskQueue, cleanup, err := initTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("task queue cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	pool, err := connectPostgres(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect postgres",
			slog.String("event", "postgres.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		slog.Error("failed to apply schema", slog.String("error", err.Error()))
		return 1
	}

	slog.Info("postgres connected")

	loc := cfg.Reminder.Location

	store, firer, storeCleanup, err := initAlertStore(ctx, cfg, redisClient)
	if err != nil {
		slog.Error("failed to initialize alert store", slog.String("error", err.Error()))
		return 1
	}
	if storeCleanup != nil {
		defer func() {
			if err := storeCleanup(); err != nil {
				slog.Warn("alert store cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	medications := repository.NewMedicationRepository(pool, nil)
	adherenceLog := repository.NewAdherenceLog(pool)
	gate := permission.NewGate(redisClient)
	userContext := auth.NewContext()

	var guard adherence.DedupeGuard
	if cfg.Reminder.DedupeWindow > 0 {
		guard = repository.NewIntakeGuard(redisClient, cfg.Reminder.DedupeWindow)
	}

	var notifier domain.Notifier
	if taskQueue != nil {
		notifier = taskqueue.NewNotifier(taskQueue)
	}

	compiler := schedule.NewCompiler(time.Now, loc)
	reconciler := reconcile.NewReconciler(store, compiler, reminderMetrics)
	recorder := adherence.NewRecorder(adherenceLog, userContext, guard, time.Now, loc)
	rescheduler := snooze.NewRescheduler(store, time.Now)
	grouper := grouping.NewGrouper(medications)
	responseRouter := router.NewRouter(recorder, rescheduler, grouper, store, outcomes, reminderMetrics)
	reminderService := reminder.NewService(reconciler, responseRouter, store, gate, notifier)

	hub := presenter.NewHub(cfg.Reminder.PromptBuffer)
	unsubscribe := reminderService.RegisterResponsePresenter(hub)
	defer unsubscribe()

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", "/metrics"},
		Module:      logging.Module("medication-reminder"),
		TracerName:  "github.com/KasumiMercury/primind-medication-reminder/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(Version).
		Register("redis", health.RedisPinger(redisClient)).
		Register("postgres", pool)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	v1.Use(auth.Middleware(false))
	handler.RegisterRoutes(v1,
		handler.NewMedicationHandler(reminderService, recorder, medications),
		handler.NewResponseHandler(reminderService, firer, time.Now),
		handler.NewUserHandler(reminderService, recorder, gate, hub, userContext),
		auth.TaskCallerMiddleware(cfg.AlertStore.FireURL),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("alert_store", string(cfg.AlertStore.Backend)),
			slog.String("timezone", loc.String()),
			slog.Duration("dedupe_window", cfg.Reminder.DedupeWindow),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if polled, ok := store.(domain.FiringStore); ok {
		dispatcher := alertstore.NewDispatcher(polled, reminderService.Deliver, alertstore.DispatcherConfig{
			Interval:  cfg.AlertStore.DispatchInterval,
			BatchSize: cfg.AlertStore.DispatchBatchSize,
		}, reminderMetrics)
		g.Go(func() error {
			return dispatcher.Run(gCtx)
		})
	}

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}

	slog.Info("server exited properly")
	return 0
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(cfg.Options())

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func connectPostgres(ctx context.Context, cfg *config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// newPolledStore builds the alert stores fired by the in-process dispatcher.
func newPolledStore(cfg *config.Config, redisClient *redis.Client) (domain.AlertStore, error) {
	switch cfg.AlertStore.Backend {
	case config.AlertStoreMemory:
		slog.Warn("using in-memory alert store, armed alerts do not survive restarts")
		return alertstore.NewMemoryStore(cfg.Reminder.Location), nil
	case config.AlertStoreRedis:
		return alertstore.NewRedisStore(redisClient, cfg.Reminder.Location), nil
	default:
		return nil, config.ErrUnknownAlertStore
	}
}
