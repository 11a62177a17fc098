package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/curbsideops/curbside-backend/api/controllers"
	"github.com/curbsideops/curbside-backend/api/routes"
	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/assignments"
	"github.com/curbsideops/curbside-backend/internal/attendance"
	"github.com/curbsideops/curbside-backend/internal/auth"
	"github.com/curbsideops/curbside-backend/internal/clock"
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

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	attendanceRepo := attendance.NewRepository(dbClient.DB())
	activityRepo := activity.NewRepository(dbClient.DB())
	assignmentsRepo := assignments.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notificationsSvc, err := notifications.NewService(notificationsRepo, logg)
	exitOn(logg, "notifications service", err)
	activitySvc, err := activity.NewService(activityRepo)
	exitOn(logg, "activity service", err)
	assignmentsSvc, err := assignments.NewService(assignmentsRepo)
	exitOn(logg, "assignments service", err)

	attendanceSvc, err := attendance.NewService(attendance.Params{
		Repo:      attendanceRepo,
		Directory: directoryRepo,
		Authz:     assignmentsSvc,
		Tx:        dbClient,
		Clock:     clk,
		Config:    cfg.Attendance,
		Logger:    logg,
	})
	exitOn(logg, "attendance service", err)

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

	authSvc, err := auth.NewService(auth.Params{
		Credentials: directoryRepo,
		JWT:         cfg.JWT,
		Logger:      logg,
		Now:         clk.Now,
	})
	exitOn(logg, "auth service", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.Params{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      prometheus.DefaultGatherer,
		HTTPMetrics:   httpMetrics,
		Health:        controllers.NewHealthController(dbClient, redisClient, logg),
		Auth:          controllers.NewAuthController(authSvc, logg),
		Tasks:         controllers.NewTasksController(tasksSvc, clk, logg),
		Attendance:    controllers.NewAttendanceController(attendanceSvc, logg),
		Pickups:       controllers.NewPickupsController(pickupsSvc, clk, logg),
		Notifications: controllers.NewNotificationsController(notificationsSvc, logg),
		Admin: controllers.NewAdminController(controllers.AdminParams{
			Tasks:       tasksSvc,
			Attendance:  attendanceSvc,
			Activity:    activitySvc,
			Assignments: assignmentsSvc,
			Directory:   directoryRepo,
			Clock:       clk,
			Logger:      logg,
		}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}
}

func exitOn(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
