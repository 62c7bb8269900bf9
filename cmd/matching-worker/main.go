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
	"github.com/roomradar/roomradar-backend/internal/inventory"
	"github.com/roomradar/roomradar-backend/internal/matching"
	"github.com/roomradar/roomradar-backend/internal/preferences"
	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/roomradar/roomradar-backend/pkg/db"
	"github.com/roomradar/roomradar-backend/pkg/logger"
	"github.com/roomradar/roomradar-backend/pkg/metrics"
	"github.com/roomradar/roomradar-backend/pkg/migrate"
	"github.com/roomradar/roomradar-backend/pkg/redis"
)

const lockKeyFormat = "rr:matching-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "matching-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "matching-worker"

	logg = logger.New(logger.Options{
		ServiceName: "matching-worker",
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

	matchingService, err := buildMatchingService(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build matching service", err)
		os.Exit(1)
	}

	matchingJob, err := cron.NewMatchingJob(cron.MatchingJobParams{
		Logger:  logg,
		Matcher: matchingService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build matching job", err)
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
		Registry: cron.NewRegistry(matchingJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Matching.Interval,
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

	logg.Info(ctx, "starting matching worker")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "matching worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "matching worker shutting down gracefully")
}

func buildMatchingService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*matching.Service, error) {
	conn := dbClient.DB()

	classifier := matching.NewClassifier(matching.ClassifierParams{
		LastMinuteDays:  cfg.Matching.LastMinuteDays,
		GoodDealPercent: cfg.Matching.GoodDealPercent,
	})

	return matching.NewService(matching.ServiceParams{
		Logger:        logg,
		DB:            dbClient,
		Preferences:   preferences.NewRepository(conn),
		Inventory:     inventory.NewRepository(conn),
		Ledger:        matching.NewLedgerRepository(conn),
		Notifications: matching.NewNotificationRepository(conn),
		Matcher: matching.NewMatcher(matching.MatcherParams{
			HorizonDays:    cfg.Matching.HorizonDays,
			CandidateLimit: cfg.Matching.CandidateLimit,
		}),
		Scorer: matching.NewScorer(matching.ScorerParams{
			UpcomingDays: cfg.Matching.UpcomingDays,
		}),
		Classifier: classifier,
		Workers:    cfg.Matching.Workers,
	})
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
