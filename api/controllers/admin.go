package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/assignments"
	"github.com/curbsideops/curbside-backend/internal/attendance"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/directory"
	"github.com/curbsideops/curbside-backend/internal/tasks"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// AdminController serves the back-office surface: cross-property task
// management, attendance review, the activity log, and assignments.
type AdminController struct {
	tasks       tasks.Service
	attendance  attendance.Service
	activity    activity.Service
	assignments assignments.Service
	directory   directory.Repository
	clk         *clock.Service
	logg        *logger.Logger
}

// AdminParams collects the admin controller dependencies.
type AdminParams struct {
	Tasks       tasks.Service
	Attendance  attendance.Service
	Activity    activity.Service
	Assignments assignments.Service
	Directory   directory.Repository
	Clock       *clock.Service
	Logger      *logger.Logger
}

// NewAdminController wires the admin handlers.
func NewAdminController(p AdminParams) *AdminController {
	return &AdminController{
		tasks:       p.Tasks,
		attendance:  p.Attendance,
		activity:    p.Activity,
		assignments: p.Assignments,
		directory:   p.Directory,
		clk:         p.Clock,
		logg:        p.Logger,
	}
}

// ListTasks returns tasks across the portfolio with optional filters.
func (c *AdminController) ListTasks(w http.ResponseWriter, r *http.Request) {
	params := tasks.ListParams{
		Limit:  queryInt(r, "limit"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	employeeID, err := queryUUID(r, "employee_id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	params.EmployeeID = employeeID
	propertyID, err := queryUUID(r, "property_id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	params.PropertyID = propertyID
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

	result, err := c.tasks.List(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

// GetTask returns one task regardless of assignee.
func (c *AdminController) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	task, err := c.tasks.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, task)
}

type createTaskRequest struct {
	PropertyID          string   `json:"property_id" validate:"required,uuid"`
	UserID              *string  `json:"user_id" validate:"omitempty,uuid"`
	EmployeeIDs         []string `json:"employee_ids" validate:"required,min=1,dive,uuid"`
	UnitNumber          string   `json:"unit_number" validate:"required"`
	BuildingName        *string  `json:"building_name"`
	ApartmentName       *string  `json:"apartment_name"`
	Type                string   `json:"type" validate:"required,oneof=routine on_demand"`
	Date                string   `json:"date" validate:"required"`
	TimeSlot            string   `json:"time_slot" validate:"required"`
	SpecialInstructions *string  `json:"special_instructions"`
	TemporaryReason     string   `json:"temporary_reason"`
}

// CreateTask creates a request plus its assigned task in one step.
func (c *AdminController) CreateTask(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body createTaskRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id"))
		return
	}
	var userID *uuid.UUID
	if body.UserID != nil {
		parsed, err := uuid.Parse(*body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}
		userID = &parsed
	}
	employeeIDs := make([]uuid.UUID, 0, len(body.EmployeeIDs))
	for _, raw := range body.EmployeeIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid employee_ids"))
			return
		}
		employeeIDs = append(employeeIDs, parsed)
	}
	date, err := time.ParseInLocation("2006-01-02", body.Date, c.clk.Location())
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date"))
		return
	}

	task, err := c.tasks.Create(r.Context(), tasks.CreateParams{
		PropertyID:          propertyID,
		UserID:              userID,
		EmployeeIDs:         employeeIDs,
		AdminID:             claims.SubjectID,
		UnitNumber:          body.UnitNumber,
		BuildingName:        body.BuildingName,
		ApartmentName:       body.ApartmentName,
		Type:                enums.PickupType(body.Type),
		Date:                date,
		TimeSlot:            body.TimeSlot,
		SpecialInstructions: body.SpecialInstructions,
		TemporaryReason:     body.TemporaryReason,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, task)
}

type reassignRequest struct {
	EmployeeID          *string `json:"employee_id" validate:"omitempty,uuid"`
	PropertyID          *string `json:"property_id" validate:"omitempty,uuid"`
	Date                *string `json:"date"`
	TimeSlot            *string `json:"time_slot"`
	SpecialInstructions *string `json:"special_instructions"`
	Reason              string  `json:"reason"`
}

// ReassignTask updates a live task's employee, property, schedule, or
// instructions. Omitted fields keep the current value.
func (c *AdminController) ReassignTask(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	taskID, err := pathUUID(r, "taskID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body reassignRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	params := tasks.ReassignParams{
		TaskID:       taskID,
		AdminID:      claims.SubjectID,
		Reason:       body.Reason,
		TimeSlot:     body.TimeSlot,
		Instructions: body.SpecialInstructions,
	}
	if body.EmployeeID != nil {
		employeeID, err := uuid.Parse(*body.EmployeeID)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid employee_id"))
			return
		}
		params.EmployeeID = &employeeID
	}
	if body.PropertyID != nil {
		propertyID, err := uuid.Parse(*body.PropertyID)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id"))
			return
		}
		params.PropertyID = &propertyID
	}
	if body.Date != nil {
		date, err := time.ParseInLocation("2006-01-02", *body.Date, c.clk.Location())
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date"))
			return
		}
		params.Date = &date
	}

	task, err := c.tasks.Reassign(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, task)
}

// ListAttendance returns attendance rows with optional filters.
func (c *AdminController) ListAttendance(w http.ResponseWriter, r *http.Request) {
	params := attendance.ListParams{
		Limit:  queryInt(r, "limit"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	employeeID, err := queryUUID(r, "employee_id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	params.EmployeeID = employeeID
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseAttendanceStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		params.Status = &status
	}
	if from, err := queryDate(r, "from", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if from != nil {
		params.From = from
	}
	if to, err := queryDate(r, "to", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if to != nil {
		next := c.clk.NextDay(*to)
		params.To = &next
	}

	result, err := c.attendance.List(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

// ListActivity returns the lifecycle activity log.
func (c *AdminController) ListActivity(w http.ResponseWriter, r *http.Request) {
	params := activity.ListParams{
		Limit:  queryInt(r, "limit"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	employeeID, err := queryUUID(r, "employee_id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	params.EmployeeID = employeeID
	taskID, err := queryUUID(r, "task_id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	params.TaskID = taskID
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := enums.ParseActivityType(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}
		params.Kind = &kind
	}
	if from, err := queryDate(r, "from", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if from != nil {
		params.From = from
	}
	if to, err := queryDate(r, "to", c.clk.Location()); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	} else if to != nil {
		next := c.clk.NextDay(*to)
		params.To = &next
	}

	result, err := c.activity.List(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

type createAssignmentRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required,uuid"`
	PropertyID string  `json:"property_id" validate:"required,uuid"`
	IsPrimary  bool    `json:"is_primary"`
	ValidFrom  string  `json:"valid_from"`
	ValidUntil *string `json:"valid_until"`
}

// CreateAssignment creates a standing employee-property assignment.
func (c *AdminController) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var body createAssignmentRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	employeeID, err := uuid.Parse(body.EmployeeID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid employee_id"))
		return
	}
	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id"))
		return
	}

	validFrom := c.clk.Now()
	if body.ValidFrom != "" {
		parsed, err := time.ParseInLocation("2006-01-02", body.ValidFrom, c.clk.Location())
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid valid_from"))
			return
		}
		validFrom = parsed
	}
	var validUntil *time.Time
	if body.ValidUntil != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *body.ValidUntil, c.clk.Location())
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid valid_until"))
			return
		}
		validUntil = &parsed
	}

	assignment, err := c.assignments.Create(r.Context(), assignments.CreateParams{
		EmployeeID: employeeID,
		PropertyID: propertyID,
		IsPrimary:  body.IsPrimary,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, assignment)
}

// ListAssignments returns one employee's standing assignments.
func (c *AdminController) ListAssignments(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathUUID(r, "employeeID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	rows, err := c.assignments.ListForEmployee(r.Context(), employeeID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, rows)
}

// EndAssignment closes a standing assignment.
func (c *AdminController) EndAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "assignmentID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.assignments.End(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]bool{"ended": true})
}

// GetEmployee returns one employee record.
func (c *AdminController) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "employeeID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	employee, err := c.directory.GetEmployee(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, employee)
}

// GetUser returns one resident record.
func (c *AdminController) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "userID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	user, err := c.directory.GetUser(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, user)
}

// GetProperty returns one property with its staffing roster.
func (c *AdminController) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "propertyID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	property, err := c.directory.GetProperty(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	employees, err := c.directory.ListActiveEmployeesForProperty(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]any{
		"property":  property,
		"employees": employees,
	})
}
