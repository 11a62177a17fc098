package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/assignments"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/notifications"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	dbtypes "github.com/curbsideops/curbside-backend/pkg/db/types"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
	"github.com/curbsideops/curbside-backend/pkg/types"
)

// Service drives the task lifecycle: start, complete, delay, reassign,
// issue reporting, and the read models built on top of tasks.
type Service interface {
	Start(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error)
	Complete(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error)
	Delay(ctx context.Context, taskID, employeeID uuid.UUID, reason string) (*models.Task, error)
	ReportIssue(ctx context.Context, params ReportIssueParams) (*models.IssueReport, error)
	Reassign(ctx context.Context, params ReassignParams) (*models.Task, error)
	Create(ctx context.Context, params CreateParams) (*models.Task, error)
	SweepMissed(ctx context.Context, now time.Time) (int, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Dashboard(ctx context.Context, employeeID uuid.UUID) (*DashboardResult, error)
	WorkHistory(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]WorkHistoryDay, error)
}

// Directory is the subset of employee/property lookups tasks need.
type Directory interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

// Assigner answers assignment questions and creates temporary coverage
// when a task moves to an employee without a standing assignment.
type Assigner interface {
	Authorized(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (bool, error)
	CreateTemporary(ctx context.Context, params assignments.CreateTemporaryParams) (*models.TemporaryAssignment, error)
}

// RequestStore is the slice of pickup-request persistence the lifecycle
// cascades touch.
type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error)
	Create(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error
	LinkTask(ctx context.Context, tx *gorm.DB, requestID, taskID uuid.UUID) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.PickupStatus) error
	UpdateDetails(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error
}

// Recorder appends lifecycle events to the activity log.
type Recorder interface {
	Record(ctx context.Context, entry activity.Entry) error
}

// Notifier delivers best-effort in-app notifications.
type Notifier interface {
	Send(ctx context.Context, msg notifications.Message)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReportIssueParams carries an employee's issue report for a task.
type ReportIssueParams struct {
	TaskID      uuid.UUID
	EmployeeID  uuid.UUID
	IssueType   string
	Description string
	MediaURLs   []string
}

// ReassignParams updates a live task. Nil fields keep the current value;
// at least one change field must be set.
type ReassignParams struct {
	TaskID  uuid.UUID
	AdminID uuid.UUID
	Reason  string

	EmployeeID   *uuid.UUID
	PropertyID   *uuid.UUID
	Date         *time.Time
	TimeSlot     *string
	Instructions *string
}

func (p ReassignParams) hasChange() bool {
	return p.EmployeeID != nil || p.PropertyID != nil ||
		p.Date != nil || p.TimeSlot != nil || p.Instructions != nil
}

// CreateParams describes an admin-created request + task pair.
type CreateParams struct {
	PropertyID          uuid.UUID
	UserID              *uuid.UUID
	EmployeeIDs         []uuid.UUID
	AdminID             uuid.UUID
	UnitNumber          string
	BuildingName        *string
	ApartmentName       *string
	Type                enums.PickupType
	Date                time.Time
	TimeSlot            string
	SpecialInstructions *string
	TemporaryReason     string
}

// ListParams filters task queries.
type ListParams struct {
	EmployeeID *uuid.UUID
	PropertyID *uuid.UUID
	Statuses   []enums.TaskStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     string
}

// ListResult wraps task rows plus the next-page cursor.
type ListResult struct {
	Items  []models.Task `json:"items"`
	Cursor string        `json:"cursor"`
}

// DashboardResult is the employee home-screen summary.
type DashboardResult struct {
	Completed   int64         `json:"completed"`
	Pending     int64         `json:"pending"`
	Missed      int64         `json:"missed"`
	NextPending []models.Task `json:"next_pending"`
}

// WorkHistoryDay groups an employee's completed tasks by calendar day.
type WorkHistoryDay struct {
	Date  string        `json:"date"`
	Count int           `json:"count"`
	Tasks []models.Task `json:"tasks"`
}

// Params wires the tasks service.
type Params struct {
	Repo      Repository
	Requests  RequestStore
	Directory Directory
	Assigner  Assigner
	Activity  Recorder
	Notifier  Notifier
	Tx        TxRunner
	Clock     *clock.Service
	Config    config.TasksConfig
	Logger    *logger.Logger
}

type service struct {
	repo     Repository
	requests RequestStore
	dir      Directory
	assigner Assigner
	activity Recorder
	notifier Notifier
	tx       TxRunner
	clock    *clock.Service
	cfg      config.TasksConfig
	logg     *logger.Logger
}

// NewService validates dependencies and returns the tasks service.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks repository required")
	}
	if p.Requests == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks request store required")
	}
	if p.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks directory required")
	}
	if p.Assigner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks assigner required")
	}
	if p.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks activity recorder required")
	}
	if p.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks notifier required")
	}
	if p.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks tx runner required")
	}
	if p.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks clock required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tasks logger required")
	}
	if p.Config.SlotCapacity <= 0 {
		p.Config.SlotCapacity = 35
	}
	return &service{
		repo:     p.Repo,
		requests: p.Requests,
		dir:      p.Directory,
		assigner: p.Assigner,
		activity: p.Activity,
		notifier: p.Notifier,
		tx:       p.Tx,
		clock:    p.Clock,
		cfg:      p.Config,
		logg:     p.Logger,
	}, nil
}

func (s *service) Start(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForActor(ctx, taskID, employeeID)
	if err != nil {
		return nil, err
	}
	if !task.Status.IsStartable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("task cannot start from status %s", task.Status))
	}

	now := s.clock.Now()
	if !task.WindowContains(now) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task is outside its scheduled window")
	}

	actualStart := now
	task.ActualStart = &actualStart
	task.EmployeeID = &employeeID
	task.Status = enums.TaskStatusInProgress

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.saveVersioned(ctx, tx, task); err != nil {
			return err
		}
		return s.record(ctx, enums.ActivityTaskStarted, task, &employeeID, nil)
	})
	if err != nil {
		return nil, asDomainErr(err, "start task")
	}

	s.logTask(ctx, task, "task started")
	return task, nil
}

func (s *service) Complete(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error) {
	task, err := s.loadForActor(ctx, taskID, employeeID)
	if err != nil {
		return nil, err
	}
	if task.Status != enums.TaskStatusInProgress {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("task cannot complete from status %s", task.Status))
	}

	now := s.clock.Now()
	if !task.WindowContains(now) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task is outside its scheduled window")
	}

	actualEnd := now
	task.ActualEnd = &actualEnd
	task.Status = enums.TaskStatusCompleted

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.saveVersioned(ctx, tx, task); err != nil {
			return err
		}
		if err := s.requests.UpdateStatus(ctx, tx, task.RequestID, enums.PickupStatusCompleted); err != nil {
			return err
		}
		return s.record(ctx, enums.ActivityTaskCompleted, task, &employeeID, nil)
	})
	if err != nil {
		return nil, asDomainErr(err, "complete task")
	}

	s.notifyRequestUser(ctx, task, enums.NotificationTaskStatus,
		"Pickup completed",
		fmt.Sprintf("Your pickup for unit %s was completed.", task.UnitNumber))
	s.logTask(ctx, task, "task completed")
	return task, nil
}

func (s *service) Delay(ctx context.Context, taskID, employeeID uuid.UUID, reason string) (*models.Task, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delay reason required")
	}

	task, err := s.loadForActor(ctx, taskID, employeeID)
	if err != nil {
		return nil, err
	}
	if !task.Status.IsStartable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("task cannot be delayed from status %s", task.Status))
	}

	now := s.clock.Now()
	if !task.WindowContains(now) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task is outside its scheduled window")
	}

	actualEnd := now
	task.ActualEnd = &actualEnd
	task.DelayReason = &reason
	task.Status = enums.TaskStatusDelayed

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.saveVersioned(ctx, tx, task); err != nil {
			return err
		}
		if err := s.requests.UpdateStatus(ctx, tx, task.RequestID, enums.PickupStatusDelayed); err != nil {
			return err
		}
		return s.record(ctx, enums.ActivityTaskDelayed, task, &employeeID, nil)
	})
	if err != nil {
		return nil, asDomainErr(err, "delay task")
	}

	s.notifyRequestUser(ctx, task, enums.NotificationTaskStatus,
		"Pickup delayed",
		fmt.Sprintf("Your pickup for unit %s was delayed: %s", task.UnitNumber, reason))
	s.logTask(ctx, task, "task delayed")
	return task, nil
}

func (s *service) ReportIssue(ctx context.Context, params ReportIssueParams) (*models.IssueReport, error) {
	if params.IssueType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue type required")
	}
	if params.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	task, err := s.loadForActor(ctx, params.TaskID, params.EmployeeID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "task already reached a terminal status")
	}

	existing, err := s.repo.FindIssue(ctx, params.TaskID, params.EmployeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing issue")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "issue already reported for this task")
	}

	issue := &models.IssueReport{
		TaskID:      params.TaskID,
		EmployeeID:  params.EmployeeID,
		IssueType:   params.IssueType,
		Description: params.Description,
		MediaURLs:   params.MediaURLs,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateIssue(ctx, issue); err != nil {
			return err
		}
		task.IssueID = &issue.ID
		if err := s.saveVersionedWith(ctx, repo, task); err != nil {
			return err
		}
		return s.record(ctx, enums.ActivityIssueReported, task, &params.EmployeeID, &issue.ID)
	})
	if err != nil {
		return nil, asDomainErr(err, "report issue")
	}

	s.notifyRequestUser(ctx, task, enums.NotificationIssueUpdate,
		"Issue reported",
		fmt.Sprintf("An issue was reported on the pickup for unit %s.", task.UnitNumber))
	s.logTask(ctx, task, "issue reported")
	return issue, nil
}

func (s *service) Reassign(ctx context.Context, params ReassignParams) (*models.Task, error) {
	if params.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	if !params.hasChange() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to reassign")
	}
	if params.EmployeeID != nil && *params.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	task, err := s.load(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed, delayed, or missed tasks cannot be reassigned")
	}

	request, err := s.requests.Get(ctx, task.RequestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup request not found")
	}

	requestChanged := false
	if params.PropertyID != nil && *params.PropertyID != task.PropertyID {
		property, err := s.dir.GetProperty(ctx, *params.PropertyID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if property == nil || !property.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		task.PropertyID = *params.PropertyID
		request.PropertyID = *params.PropertyID
		requestChanged = true
	}

	if params.Date != nil || params.TimeSlot != nil {
		slot := types.TimeSlot{
			StartMinutes:    request.SlotStartMinutes,
			DurationMinutes: request.SlotDurationMinutes,
		}
		if params.TimeSlot != nil {
			slot, err = types.ParseTimeSlot(*params.TimeSlot)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid time slot")
			}
		}
		date := request.Date
		if params.Date != nil {
			date = *params.Date
		}
		loc := s.clock.Location()
		task.ScheduledStart = slot.StartOn(date, loc)
		task.ScheduledEnd = slot.EndOn(date, loc)
		request.Date = s.clock.StartOfDay(task.ScheduledStart)
		request.TimeSlot = slot.Display()
		request.SlotStartMinutes = slot.StartMinutes
		request.SlotDurationMinutes = slot.DurationMinutes
		requestChanged = true
	}

	if params.Instructions != nil {
		request.SpecialInstructions = params.Instructions
		requestChanged = true
	}

	// Capacity is checked against the effective property and slot, after
	// any schedule or property change has been applied.
	if err := s.enforceSlotCapacity(ctx, task.PropertyID, task.ScheduledStart, &task.ID); err != nil {
		return nil, err
	}

	if params.EmployeeID != nil {
		employee, err := s.dir.GetEmployee(ctx, *params.EmployeeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
		}
		if employee == nil || !employee.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		if err := s.ensureCoverage(ctx, *params.EmployeeID, task, params.AdminID, params.Reason); err != nil {
			return nil, err
		}
		task.EmployeeID = nil
		task.AssignedEmployees = dbtypes.UUIDArray{*params.EmployeeID}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.saveVersioned(ctx, tx, task); err != nil {
			return err
		}
		if requestChanged {
			return s.requests.UpdateDetails(ctx, tx, request)
		}
		return nil
	})
	if err != nil {
		return nil, asDomainErr(err, "reassign task")
	}

	if params.EmployeeID != nil {
		s.notifier.Send(ctx, notifications.Message{
			RecipientID: *params.EmployeeID,
			Role:        enums.RoleEmployee,
			Type:        enums.NotificationNewTaskAssigned,
			Title:       "Task assigned",
			Body:        fmt.Sprintf("You were assigned a pickup for unit %s.", task.UnitNumber),
		})
	}
	s.logTask(ctx, task, "task reassigned")
	return task, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Task, error) {
	if params.UnitNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit number required")
	}
	if len(params.EmployeeIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one employee required")
	}
	if !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pickup type")
	}

	property, err := s.dir.GetProperty(ctx, params.PropertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if property == nil || !property.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}

	slot, err := types.ParseTimeSlot(params.TimeSlot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid time slot")
	}

	loc := s.clock.Location()
	scheduledStart := slot.StartOn(params.Date, loc)
	scheduledEnd := slot.EndOn(params.Date, loc)

	if err := s.enforceSlotCapacity(ctx, params.PropertyID, scheduledStart, nil); err != nil {
		return nil, err
	}

	assigned := make(dbtypes.UUIDArray, 0, len(params.EmployeeIDs))
	for _, employeeID := range params.EmployeeIDs {
		employee, err := s.dir.GetEmployee(ctx, employeeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
		}
		if employee == nil || !employee.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}

		task := models.Task{PropertyID: params.PropertyID, ScheduledStart: scheduledStart, ScheduledEnd: scheduledEnd}
		if err := s.ensureCoverage(ctx, employeeID, &task, params.AdminID, params.TemporaryReason); err != nil {
			return nil, err
		}
		assigned = append(assigned, employeeID)
	}

	request := &models.PickupRequest{
		UserID:              params.UserID,
		PropertyID:          params.PropertyID,
		UnitNumber:          params.UnitNumber,
		BuildingName:        params.BuildingName,
		ApartmentName:       params.ApartmentName,
		Type:                params.Type,
		Date:                s.clock.StartOfDay(scheduledStart),
		TimeSlot:            slot.Display(),
		SlotStartMinutes:    slot.StartMinutes,
		SlotDurationMinutes: slot.DurationMinutes,
		SpecialInstructions: params.SpecialInstructions,
		Status:              enums.PickupStatusScheduled,
	}

	task := &models.Task{
		PropertyID:        params.PropertyID,
		AssignedEmployees: assigned,
		UnitNumber:        params.UnitNumber,
		BuildingName:      params.BuildingName,
		ApartmentName:     params.ApartmentName,
		ScheduledStart:    scheduledStart,
		ScheduledEnd:      scheduledEnd,
		Status:            enums.TaskStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.requests.Create(ctx, tx, request); err != nil {
			return err
		}
		task.RequestID = request.ID
		if err := repo.Create(ctx, task); err != nil {
			return err
		}
		if err := s.requests.LinkTask(ctx, tx, request.ID, task.ID); err != nil {
			return err
		}
		return s.record(ctx, enums.ActivityNewRequest, task, nil, nil)
	})
	if err != nil {
		return nil, asDomainErr(err, "create task")
	}

	for _, employeeID := range assigned {
		s.notifier.Send(ctx, notifications.Message{
			RecipientID: employeeID,
			Role:        enums.RoleEmployee,
			Type:        enums.NotificationNewTaskAssigned,
			Title:       "Task assigned",
			Body:        fmt.Sprintf("You were assigned a pickup for unit %s.", task.UnitNumber),
		})
	}
	s.logTask(ctx, task, "task created")
	return task, nil
}

// sweepBatchSize bounds how many overdue tasks one sweep pass handles.
const sweepBatchSize = 500

// SweepMissed marks overdue live tasks as missed and cascades the linked
// requests. Failures are isolated per task so one bad row never aborts the
// batch; the sweep is idempotent because missed tasks drop out of the
// expired query.
func (s *service) SweepMissed(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.repo.ListExpired(ctx, enums.ActiveTaskStatuses, now, sweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired tasks")
	}

	swept := 0
	var errs error
	for i := range rows {
		task := rows[i]
		won, err := s.sweepOne(ctx, &task, now)
		if err != nil {
			ctx := s.logg.WithTaskID(ctx, task.ID.String())
			s.logg.Error(ctx, "sweeping missed task", err)
			errs = multierr.Append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if !won {
			continue
		}
		swept++
		s.notifyRequestUser(ctx, &task, enums.NotificationPickupMissed,
			"Pickup missed",
			fmt.Sprintf("The pickup for unit %s was missed.", task.UnitNumber))
	}
	return swept, errs
}

// sweepOne transitions a single task to missed. A lost version race means
// another worker already swept it, which is not an error.
func (s *service) sweepOne(ctx context.Context, task *models.Task, now time.Time) (bool, error) {
	task.Status = enums.TaskStatusMissed
	actualEnd := now
	task.ActualEnd = &actualEnd

	won := true
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.UpdateVersioned(ctx, task)
		if err != nil {
			return err
		}
		if !ok {
			won = false
			return nil
		}
		if err := s.requests.UpdateStatus(ctx, tx, task.RequestID, enums.PickupStatusMissed); err != nil {
			return err
		}
		taskID := task.ID
		return s.activity.Record(ctx, activity.Entry{
			Kind:       enums.ActivityTaskMissed,
			TaskID:     &taskID,
			UnitNumber: task.UnitNumber,
			OccurredAt: now,
		})
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listTasksParams{
		EmployeeID: params.EmployeeID,
		PropertyID: params.PropertyID,
		Statuses:   params.Statuses,
		From:       params.From,
		To:         params.To,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Dashboard(ctx context.Context, employeeID uuid.UUID) (*DashboardResult, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	now := s.clock.Now()
	from, to := s.clock.DayRange(now)

	counts, err := s.repo.CountByStatus(ctx, employeeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tasks")
	}

	next, err := s.repo.NextPending(ctx, employeeID, now, 2)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load next tasks")
	}

	return &DashboardResult{
		Completed: counts[enums.TaskStatusCompleted],
		Pending: counts[enums.TaskStatusPending] +
			counts[enums.TaskStatusScheduled] +
			counts[enums.TaskStatusInProgress],
		Missed:      counts[enums.TaskStatusMissed],
		NextPending: next,
	}, nil
}

func (s *service) WorkHistory(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]WorkHistoryDay, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid history range")
	}

	rows, err := s.repo.CompletedBetween(ctx, employeeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work history")
	}

	loc := s.clock.Location()
	days := []WorkHistoryDay{}
	index := map[string]int{}
	for _, task := range rows {
		if task.ActualEnd == nil {
			continue
		}
		day := task.ActualEnd.In(loc).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, WorkHistoryDay{Date: day})
		}
		days[i].Tasks = append(days[i].Tasks, task)
		days[i].Count++
	}
	return days, nil
}

// loadForActor fetches the task and enforces the assignee guard.
func (s *service) loadForActor(ctx context.Context, taskID, employeeID uuid.UUID) (*models.Task, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.AssignedTo(employeeID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task is not assigned to this employee")
	}
	return task, nil
}

func (s *service) load(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}

	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	if task == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}
	return task, nil
}

func (s *service) saveVersioned(ctx context.Context, tx *gorm.DB, task *models.Task) error {
	return s.saveVersionedWith(ctx, s.repo.WithTx(tx), task)
}

func (s *service) saveVersionedWith(ctx context.Context, repo Repository, task *models.Task) error {
	ok, err := repo.UpdateVersioned(ctx, task)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "task was modified concurrently")
	}
	return nil
}

// enforceSlotCapacity counts live tasks whose scheduled start falls in the
// same property hour and rejects once the configured ceiling is reached.
func (s *service) enforceSlotCapacity(ctx context.Context, propertyID uuid.UUID, scheduledStart time.Time, exclude *uuid.UUID) error {
	loc := s.clock.Location()
	start := scheduledStart.In(loc)
	hourStart := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, loc)
	hourEnd := hourStart.Add(time.Hour)

	count, err := s.repo.CountInHour(ctx, propertyID, hourStart, hourEnd, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count slot tasks")
	}
	if count >= int64(s.cfg.SlotCapacity) {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("hour slot is at capacity (%d tasks)", s.cfg.SlotCapacity))
	}
	return nil
}

// ensureCoverage creates a temporary assignment when the employee has no
// standing one covering the task window.
func (s *service) ensureCoverage(ctx context.Context, employeeID uuid.UUID, task *models.Task, adminID uuid.UUID, reason string) error {
	ok, err := s.assigner.Authorized(ctx, employeeID, task.PropertyID, task.ScheduledStart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
	}
	if ok {
		return nil
	}

	if reason == "" {
		reason = "temporary task coverage"
	}
	_, err = s.assigner.CreateTemporary(ctx, assignments.CreateTemporaryParams{
		EmployeeID: employeeID,
		PropertyID: task.PropertyID,
		StartAt:    task.ScheduledStart,
		EndAt:      task.ScheduledEnd,
		AssignedBy: adminID,
		Reason:     reason,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create temporary assignment")
	}
	return nil
}

func (s *service) record(ctx context.Context, kind enums.ActivityType, task *models.Task, employeeID, issueID *uuid.UUID) error {
	taskID := task.ID
	return s.activity.Record(ctx, activity.Entry{
		Kind:       kind,
		TaskID:     &taskID,
		EmployeeID: employeeID,
		IssueID:    issueID,
		UnitNumber: task.UnitNumber,
		OccurredAt: s.clock.Now(),
	})
}

// notifyRequestUser delivers a status notification to the request's user,
// if the request was user-initiated.
func (s *service) notifyRequestUser(ctx context.Context, task *models.Task, kind enums.NotificationType, title, body string) {
	request, err := s.requests.Get(ctx, task.RequestID)
	if err != nil {
		s.logg.Error(ctx, "loading request for notification", err)
		return
	}
	if request == nil || request.UserID == nil {
		return
	}
	s.notifier.Send(ctx, notifications.Message{
		RecipientID: *request.UserID,
		Role:        enums.RoleUser,
		Type:        kind,
		Title:       title,
		Body:        body,
	})
}

func (s *service) logTask(ctx context.Context, task *models.Task, msg string) {
	ctx = s.logg.WithTaskID(ctx, task.ID.String())
	ctx = s.logg.WithPropertyID(ctx, task.PropertyID.String())
	s.logg.Info(ctx, msg)
}

func asDomainErr(err error, fallback string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fallback)
}
