package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curbsideops/curbside-backend/api/controllers"
	"github.com/curbsideops/curbside-backend/api/middleware"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/metrics"
)

// Params collects everything the router mounts.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
	Health        *controllers.HealthController
	Auth          *controllers.AuthController
	Tasks         *controllers.TasksController
	Attendance    *controllers.AttendanceController
	Pickups       *controllers.PickupsController
	Notifications *controllers.NotificationsController
	Admin         *controllers.AdminController
}

// NewRouter builds the full HTTP surface: health probes, metrics, the
// public auth endpoint, and the employee, resident, and admin APIs.
func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logging(p.Logger),
		middleware.Recover(p.Logger),
		middleware.Metrics(p.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", p.Health.Live)
		r.Get("/ready", p.Health.Ready)
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", p.Auth.Login)
	})

	r.Route("/api/v1/employee", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole(p.Logger, enums.RoleEmployee))

		r.Get("/dashboard", p.Tasks.Dashboard)
		r.Get("/work-history", p.Tasks.WorkHistory)
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", p.Tasks.List)
			r.Get("/{taskID}", p.Tasks.Get)
			r.Post("/{taskID}/start", p.Tasks.Start)
			r.Post("/{taskID}/complete", p.Tasks.Complete)
			r.Post("/{taskID}/delay", p.Tasks.Delay)
			r.Post("/{taskID}/issues", p.Tasks.ReportIssue)
		})
		r.Post("/check-in", p.Attendance.CheckIn)
		r.Post("/check-out", p.Attendance.CheckOut)
		r.Get("/check-in-status", p.Attendance.Status)
	})

	r.Route("/api/v1/pickups", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole(p.Logger, enums.RoleUser))

		r.Post("/", p.Pickups.Create)
		r.Get("/", p.Pickups.List)
		r.Get("/{requestID}", p.Pickups.Get)
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Get("/", p.Notifications.List)
		r.Post("/{notificationID}/read", p.Notifications.MarkRead)
		r.Post("/read-all", p.Notifications.MarkAllRead)
		r.Get("/settings", p.Notifications.GetSettings)
		r.Put("/settings", p.Notifications.UpdateSettings)
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole(p.Logger, enums.RoleAdmin))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", p.Admin.ListTasks)
			r.Post("/", p.Admin.CreateTask)
			r.Get("/{taskID}", p.Admin.GetTask)
			r.Post("/{taskID}/reassign", p.Admin.ReassignTask)
		})
		r.Get("/attendance", p.Admin.ListAttendance)
		r.Get("/activity", p.Admin.ListActivity)
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", p.Admin.CreateAssignment)
			r.Post("/{assignmentID}/end", p.Admin.EndAssignment)
		})
		r.Get("/employees/{employeeID}", p.Admin.GetEmployee)
		r.Get("/employees/{employeeID}/assignments", p.Admin.ListAssignments)
		r.Get("/users/{userID}", p.Admin.GetUser)
		r.Get("/properties/{propertyID}", p.Admin.GetProperty)
	})

	return r
}
