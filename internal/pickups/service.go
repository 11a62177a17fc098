package pickups

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/internal/activity"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/notifications"
	"github.com/curbsideops/curbside-backend/internal/tasks"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	dbtypes "github.com/curbsideops/curbside-backend/pkg/db/types"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
	"github.com/curbsideops/curbside-backend/pkg/types"
)

// Service creates and lists pickup requests. On-demand requests fan a
// shared task out to every active employee on the property; routine
// requests are materialized by the nightly generator.
type Service interface {
	CreateOnDemand(ctx context.Context, params CreateOnDemandParams) (*models.PickupRequest, error)
	CreateRoutine(ctx context.Context, user models.User, date time.Time) (*models.PickupRequest, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// TaskStore creates the fan-out task inside the request transaction.
type TaskStore interface {
	Create(ctx context.Context, tx *gorm.DB, task *models.Task) error
}

type taskStoreAdapter struct {
	repo tasks.Repository
}

// NewTaskStore adapts the tasks repository to the narrow interface the
// on-demand flow needs.
func NewTaskStore(repo tasks.Repository) TaskStore {
	return taskStoreAdapter{repo: repo}
}

func (a taskStoreAdapter) Create(ctx context.Context, tx *gorm.DB, task *models.Task) error {
	return a.repo.WithTx(tx).Create(ctx, task)
}

// Directory is the subset of lookups pickups need.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListActiveEmployeesForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Employee, error)
}

// Recorder appends request events to the activity log.
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

// CreateOnDemandParams carries a user's on-demand pickup request.
type CreateOnDemandParams struct {
	UserID              uuid.UUID
	Date                time.Time
	TimeSlot            string
	SpecialInstructions *string
}

// ListParams filters pickup request queries.
type ListParams struct {
	UserID     *uuid.UUID
	PropertyID *uuid.UUID
	Statuses   []enums.PickupStatus
	Type       *enums.PickupType
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     string
}

// ListResult wraps request rows plus the next-page cursor.
type ListResult struct {
	Items  []models.PickupRequest `json:"items"`
	Cursor string                 `json:"cursor"`
}

// Params wires the pickups service.
type Params struct {
	Repo      Repository
	Tasks     TaskStore
	Directory Directory
	Activity  Recorder
	Notifier  Notifier
	Tx        TxRunner
	Clock     *clock.Service
	Logger    *logger.Logger
}

type service struct {
	repo     Repository
	tasks    TaskStore
	dir      Directory
	activity Recorder
	notifier Notifier
	tx       TxRunner
	clock    *clock.Service
	logg     *logger.Logger
}

// NewService validates dependencies and returns the pickups service.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups repository required")
	}
	if p.Tasks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups task repository required")
	}
	if p.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups directory required")
	}
	if p.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups activity recorder required")
	}
	if p.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups notifier required")
	}
	if p.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups tx runner required")
	}
	if p.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups clock required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pickups logger required")
	}
	return &service{
		repo:     p.Repo,
		tasks:    p.Tasks,
		dir:      p.Directory,
		activity: p.Activity,
		notifier: p.Notifier,
		tx:       p.Tx,
		clock:    p.Clock,
		logg:     p.Logger,
	}, nil
}

func (s *service) CreateOnDemand(ctx context.Context, params CreateOnDemandParams) (*models.PickupRequest, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.dir.GetUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	property, err := s.dir.GetProperty(ctx, user.PropertyID)
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

	date := params.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	scheduledStart := slot.StartOn(date, s.clock.Location())
	scheduledEnd := slot.EndOn(date, s.clock.Location())
	if !scheduledEnd.After(s.clock.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "time slot already passed")
	}

	employees, err := s.dir.ListActiveEmployeesForProperty(ctx, user.PropertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property employees")
	}

	request := &models.PickupRequest{
		UserID:              &user.ID,
		PropertyID:          user.PropertyID,
		UnitNumber:          user.UnitNumber,
		BuildingName:        user.BuildingName,
		ApartmentName:       user.ApartmentName,
		Type:                enums.PickupTypeOnDemand,
		Date:                s.clock.StartOfDay(scheduledStart),
		TimeSlot:            slot.Display(),
		SlotStartMinutes:    slot.StartMinutes,
		SlotDurationMinutes: slot.DurationMinutes,
		SpecialInstructions: params.SpecialInstructions,
		Status:              enums.PickupStatusScheduled,
	}

	assigned := make(dbtypes.UUIDArray, 0, len(employees))
	for _, employee := range employees {
		assigned = append(assigned, employee.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, request); err != nil {
			return err
		}

		// Requests without any staffed employee stay taskless until an
		// admin assigns one.
		if len(assigned) > 0 {
			task := &models.Task{
				RequestID:         request.ID,
				PropertyID:        user.PropertyID,
				AssignedEmployees: assigned,
				UnitNumber:        user.UnitNumber,
				BuildingName:      user.BuildingName,
				ApartmentName:     user.ApartmentName,
				ScheduledStart:    scheduledStart,
				ScheduledEnd:      scheduledEnd,
				Status:            enums.TaskStatusPending,
			}
			if err := s.tasks.Create(ctx, tx, task); err != nil {
				return err
			}
			if err := s.repo.LinkTask(ctx, tx, request.ID, task.ID); err != nil {
				return err
			}
			request.TaskID = &task.ID
		}

		requestType := request.Type
		return s.activity.Record(ctx, activity.Entry{
			Kind:        enums.ActivityNewRequest,
			TaskID:      request.TaskID,
			UnitNumber:  request.UnitNumber,
			RequestType: &requestType,
			OccurredAt:  s.clock.Now(),
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup request")
	}

	for _, employeeID := range assigned {
		s.notifier.Send(ctx, notifications.Message{
			RecipientID: employeeID,
			Role:        enums.RoleEmployee,
			Type:        enums.NotificationNewTaskAssigned,
			Title:       "New pickup request",
			Body:        fmt.Sprintf("Unit %s requested a pickup at %s.", request.UnitNumber, request.TimeSlot),
		})
	}
	s.notifier.Send(ctx, notifications.Message{
		RecipientID: user.ID,
		Role:        enums.RoleUser,
		Type:        enums.NotificationPickupConfirmed,
		Title:       "Pickup scheduled",
		Body:        fmt.Sprintf("Your pickup is scheduled for %s.", request.TimeSlot),
	})

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	ctx = s.logg.WithPropertyID(ctx, user.PropertyID.String())
	s.logg.Info(ctx, "on-demand pickup created")
	return request, nil
}

// CreateRoutine materializes one routine request for the user on the given
// day. The second return is false when a routine request already exists for
// that day, which makes the nightly generator idempotent.
func (s *service) CreateRoutine(ctx context.Context, user models.User, date time.Time) (*models.PickupRequest, bool, error) {
	day := s.clock.StartOfDay(date)

	exists, err := s.repo.RoutineExists(ctx, user.ID, user.PropertyID, day)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check routine request")
	}
	if exists {
		return nil, false, nil
	}

	slot, err := types.ParseTimeSlot(user.RoutineDefaultTime)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid routine default time")
	}

	request := &models.PickupRequest{
		UserID:              &user.ID,
		PropertyID:          user.PropertyID,
		UnitNumber:          user.UnitNumber,
		BuildingName:        user.BuildingName,
		ApartmentName:       user.ApartmentName,
		Type:                enums.PickupTypeRoutine,
		Date:                day,
		TimeSlot:            slot.Display(),
		SlotStartMinutes:    slot.StartMinutes,
		SlotDurationMinutes: slot.DurationMinutes,
		Status:              enums.PickupStatusScheduled,
	}
	if err := s.repo.Create(ctx, nil, request); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create routine request")
	}

	s.notifier.Send(ctx, notifications.Message{
		RecipientID: user.ID,
		Role:        enums.RoleUser,
		Type:        enums.NotificationPickupConfirmed,
		Title:       "Routine pickup scheduled",
		Body:        fmt.Sprintf("Your routine pickup on %s is scheduled for %s.", day.Format("Jan 2"), request.TimeSlot),
	})
	return request, true, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	request, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listRequestsParams{
		UserID:     params.UserID,
		PropertyID: params.PropertyID,
		Statuses:   params.Statuses,
		Type:       params.Type,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
