package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/assignments"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/cron"
	"github.com/curbsideops/curbside-backend/internal/directory"
	"github.com/curbsideops/curbside-backend/internal/notifications"
	"github.com/curbsideops/curbside-backend/internal/pickups"
	"github.com/curbsideops/curbside-backend/internal/tasks"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/metrics"
	"github.com/curbsideops/curbside-backend/pkg/migrate"
	"github.com/curbsideops/curbside-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	clk := clock.New(context.Background(), clock.Params{Config: cfg.Clock, Logger: logg})

	directoryRepo := directory.NewRepository(dbClient.DB())
	tasksRepo := tasks.NewRepository(dbClient.DB())
	pickupsRepo := pickups.NewRepository(dbClient.DB())
	activityRepo := activity.NewRepository(dbClient.DB())
	assignmentsRepo := assignments.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notificationsSvc, err := notifications.NewService(notificationsRepo, logg)
	exitOn(logg, "notifications service", err)
	activitySvc, err := activity.NewService(activityRepo)
	exitOn(logg, "activity service", err)
	assignmentsSvc, err := assignments.NewService(assignmentsRepo)
	exitOn(logg, "assignments service", err)

	tasksSvc, err := tasks.NewService(tasks.Params{
		Repo:      tasksRepo,
		Requests:  pickupsRepo,
		Directory: directoryRepo,
		Assigner:  assignmentsSvc,
		Activity:  activitySvc,
		Notifier:  notificationsSvc,
		Tx:        dbClient,
		Clock:     clk,
		Config:    cfg.Tasks,
		Logger:    logg,
	})
	exitOn(logg, "tasks service", err)

	pickupsSvc, err := pickups.NewService(pickups.Params{
		Repo:      pickupsRepo,
		Tasks:     pickups.NewTaskStore(tasksRepo),
		Directory: directoryRepo,
		Activity:  activitySvc,
		Notifier:  notificationsSvc,
		Tx:        dbClient,
		Clock:     clk,
		Logger:    logg,
	})
	exitOn(logg, "pickups service", err)

	registry := cron.NewRegistry()
	registry.Register(cron.NewMissedTasksJob(tasksSvc, cfg.Cron.SweepInterval, logg))
	registry.Register(cron.NewRoutinePickupsJob(directoryRepo, pickupsSvc, clk, cfg.Cron.RoutineHour, logg))

	worker, err := cron.New(cron.Params{
		Registry: registry,
		Locker:   redisClient,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Clock:    clk,
		Config:   cfg.Cron,
		Logger:   logg,
	})
	exitOn(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func exitOn(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
