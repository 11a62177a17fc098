package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/tasks"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// TasksController serves the employee-facing task endpoints.
type TasksController struct {
	svc  tasks.Service
	clk  *clock.Service
	logg *logger.Logger
}

// NewTasksController wires the employee task handlers.
func NewTasksController(svc tasks.Service, clk *clock.Service, logg *logger.Logger) *TasksController {
	return &TasksController{svc: svc, clk: clk, logg: logg}
}

// Dashboard returns today's count summary plus the next pending tasks.
func (c *TasksController) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	result, err := c.svc.Dashboard(r.Context(), claims.SubjectID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// List returns the caller's tasks, filterable by status and date.
func (c *TasksController) List(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	params := tasks.ListParams{
		EmployeeID: &claims.SubjectID,
		Limit:      queryInt(r, "limit"),
		Cursor:     r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseTaskStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		params.Statuses = []enums.TaskStatus{status}
	}
	if date, err := queryDate(r, "date", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if date != nil {
		from, to := c.clk.DayRange(*date)
		params.From, params.To = &from, &to
	}

	result, err := c.svc.List(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

// Get returns one task visible to the caller. Tasks assigned to other
// employees read as not found.
func (c *TasksController) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	task, err := c.svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if !task.AssignedTo(claims.SubjectID) {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.New(pkgerrors.CodeNotFound, "task not found"))
		return
	}
	responses.WriteSuccess(w, http.StatusOK, task)
}

// Start moves a pending task to in_progress for the caller.
func (c *TasksController) Start(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.svc.Start)
}

// Complete finishes an in-progress task.
func (c *TasksController) Complete(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.svc.Complete)
}

type delayRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Delay marks a task delayed with the caller's reason.
func (c *TasksController) Delay(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body delayRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	task, err := c.svc.Delay(r.Context(), id, claims.SubjectID, body.Reason)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, task)
}

type reportIssueRequest struct {
	IssueType   string   `json:"issue_type" validate:"required"`
	Description string   `json:"description" validate:"required"`
	MediaURLs   []string `json:"media_urls"`
}

// ReportIssue files an issue report against a task.
func (c *TasksController) ReportIssue(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body reportIssueRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	issue, err := c.svc.ReportIssue(r.Context(), tasks.ReportIssueParams{
		TaskID:      id,
		EmployeeID:  claims.SubjectID,
		IssueType:   body.IssueType,
		Description: body.Description,
		MediaURLs:   body.MediaURLs,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, issue)
}

// WorkHistory groups the caller's completed tasks by day. The range
// defaults to the trailing week when from/to are absent.
func (c *TasksController) WorkHistory(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	to := c.clk.NextDay(c.clk.Today())
	from := to.AddDate(0, 0, -7)
	if parsed, err := queryDate(r, "from", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if parsed != nil {
		from = *parsed
	}
	if parsed, err := queryDate(r, "to", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if parsed != nil {
		to = c.clk.NextDay(*parsed)
	}

	days, err := c.svc.WorkHistory(r.Context(), claims.SubjectID, from, to)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, days)
}

func (c *TasksController) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error)) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	task, err := fn(r.Context(), id, claims.SubjectID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, task)
}
