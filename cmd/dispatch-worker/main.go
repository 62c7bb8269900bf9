package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomradar/roomradar-backend/api/ops"
	"github.com/roomradar/roomradar-backend/internal/cron"
	"github.com/roomradar/roomradar-backend/internal/dispatch"
	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/roomradar/roomradar-backend/pkg/db"
	"github.com/roomradar/roomradar-backend/pkg/logger"
	"github.com/roomradar/roomradar-backend/pkg/mailer"
	"github.com/roomradar/roomradar-backend/pkg/metrics"
	"github.com/roomradar/roomradar-backend/pkg/migrate"
	"github.com/roomradar/roomradar-backend/pkg/redis"
)

const lockKeyFormat = "rr:dispatch-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "dispatch-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "dispatch-worker"

	logg = logger.New(logger.Options{
		ServiceName: "dispatch-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sender, err := mailer.NewSMTPSender(cfg.SMTP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build smtp sender", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(dispatch.ServiceParams{
		Logger:        logg,
		DB:            dbClient,
		Notifications: dispatch.NewRepository(dbClient.DB()),
		Users:         dispatch.NewUserRepository(dbClient.DB()),
		Sender:        sender,
		BatchSize:     cfg.Dispatch.BatchSize,
		MaxRetries:    cfg.Dispatch.MaxRetries,
		RetentionDays: cfg.Dispatch.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build dispatch service", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(logg, dispatchService)
	if err != nil {
		logg.Error(context.Background(), "failed to build jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Dispatch.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	opsServer := &http.Server{
		Addr: ":" + cfg.Ops.Port,
		Handler: ops.NewHandler(ops.HandlerParams{
			Config: cfg,
			Logger: logg,
			DB:     dbClient,
			Redis:  redisClient,
		}),
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server stopped unexpectedly", err)
		}
	}()
	defer func() {
		if err := opsServer.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down ops server", err)
		}
	}()

	logg.Info(ctx, "starting dispatch worker")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "dispatch worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "dispatch worker shutting down gracefully")
}

// buildRegistry orders the jobs so a failed send waits one interval before
// requeue, and cleanup runs after the queue has drained.
func buildRegistry(logg *logger.Logger, svc *dispatch.Service) (*cron.Registry, error) {
	dispatchJob, err := cron.NewDispatchJob(cron.DispatchJobParams{Logger: logg, Dispatcher: svc})
	if err != nil {
		return nil, err
	}
	requeueJob, err := cron.NewRequeueJob(cron.RequeueJobParams{Logger: logg, Dispatcher: svc})
	if err != nil {
		return nil, err
	}
	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{Logger: logg, Dispatcher: svc})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(dispatchJob, requeueJob, cleanupJob), nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
