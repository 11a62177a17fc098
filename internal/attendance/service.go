package attendance

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/geo"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Service runs the geofenced check-in/check-out workflow.
type Service interface {
	CheckIn(ctx context.Context, params CheckParams) (*models.Attendance, error)
	CheckOut(ctx context.Context, params CheckParams) (*models.Attendance, error)
	Status(ctx context.Context, employeeID uuid.UUID) (*StatusResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Authorizer answers whether an employee may act at a property.
type Authorizer interface {
	Authorized(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (bool, error)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckParams carries a check-in or check-out request.
type CheckParams struct {
	EmployeeID uuid.UUID
	PropertyID uuid.UUID
	Lat        float64
	Lng        float64
}

// StatusResult summarizes today's attendance for an employee.
type StatusResult struct {
	CheckedIn  bool               `json:"checked_in"`
	Attendance *models.Attendance `json:"attendance,omitempty"`
	OpenVisits int                `json:"open_visits"`
}

// ListParams filters admin attendance queries.
type ListParams struct {
	EmployeeID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Status     *enums.AttendanceStatus
	Limit      int
	Cursor     string
}

// ListResult wraps attendance rows plus the next-page cursor.
type ListResult struct {
	Items  []models.Attendance `json:"items"`
	Cursor string              `json:"cursor"`
}

// Params wires the attendance service.
type Params struct {
	Repo      Repository
	Directory Directory
	Authz     Authorizer
	Tx        TxRunner
	Clock     *clock.Service
	Config    config.AttendanceConfig
	Logger    *logger.Logger
}

type service struct {
	repo  Repository
	dir   Directory
	authz Authorizer
	tx    TxRunner
	clock *clock.Service
	cfg   config.AttendanceConfig
	logg  *logger.Logger
}

// NewService validates dependencies and returns the attendance service.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance repository required")
	}
	if p.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance directory required")
	}
	if p.Authz == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance authorizer required")
	}
	if p.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance tx runner required")
	}
	if p.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance clock required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance logger required")
	}
	return &service{
		repo:  p.Repo,
		dir:   p.Directory,
		authz: p.Authz,
		tx:    p.Tx,
		clock: p.Clock,
		cfg:   p.Config,
		logg:  p.Logger,
	}, nil
}

func (s *service) CheckIn(ctx context.Context, params CheckParams) (*models.Attendance, error) {
	employee, property, err := s.resolve(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.authorize(ctx, params, now); err != nil {
		return nil, err
	}
	if err := s.enforceGeofence(property, params.Lat, params.Lng); err != nil {
		return nil, err
	}

	today := s.clock.Today()
	attendance, err := s.repo.FindForDay(ctx, params.EmployeeID, today)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attendance")
	}

	if attendance != nil {
		existing, err := s.repo.FindVisit(ctx, attendance.ID, params.PropertyID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property visit")
		}
		if existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already checked in at this property today")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if attendance == nil {
			status := enums.AttendanceStatusOnTime
			duty := enums.DutyStatusOnDuty
			deadline := employee.ShiftStartOn(today, s.clock.Location()).
				Add(time.Duration(s.cfg.GraceMinutes) * time.Minute)
			if now.After(deadline) {
				status = enums.AttendanceStatusLate
				duty = enums.DutyStatusLate
			}

			shiftStart := employee.ShiftStartOn(today, s.clock.Location())
			clockIn := now
			attendance = &models.Attendance{
				EmployeeID: params.EmployeeID,
				ShiftDate:  today,
				ShiftStart: &shiftStart,
				Status:     status,
				ClockIn:    &clockIn,
			}
			if err := repo.Create(ctx, attendance); err != nil {
				return err
			}
			if err := s.dir.UpdateDutyStatus(ctx, tx, params.EmployeeID, duty); err != nil {
				return err
			}
		} else if attendance.ClockIn == nil || now.Before(*attendance.ClockIn) {
			clockIn := now
			attendance.ClockIn = &clockIn
			if err := repo.Save(ctx, attendance); err != nil {
				return err
			}
		}

		visit := models.PropertyVisit{
			AttendanceID: attendance.ID,
			PropertyID:   params.PropertyID,
			CheckInAt:    now,
			CheckInLat:   params.Lat,
			CheckInLng:   params.Lng,
		}
		if err := repo.CreateVisit(ctx, &visit); err != nil {
			return err
		}
		attendance.Visits = append(attendance.Visits, visit)
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check in")
	}

	ctx = s.logg.WithEmployeeID(ctx, params.EmployeeID.String())
	ctx = s.logg.WithPropertyID(ctx, params.PropertyID.String())
	s.logg.Info(ctx, "employee checked in")
	return attendance, nil
}

func (s *service) CheckOut(ctx context.Context, params CheckParams) (*models.Attendance, error) {
	_, property, err := s.resolve(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.enforceGeofence(property, params.Lat, params.Lng); err != nil {
		return nil, err
	}

	attendance, err := s.repo.FindForDay(ctx, params.EmployeeID, s.clock.Today())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attendance")
	}
	if attendance == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no attendance recorded today")
	}

	visit, err := s.repo.FindVisit(ctx, attendance.ID, params.PropertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property visit")
	}
	if visit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no check-in recorded for this property today")
	}
	if !visit.Open() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already checked out from this property")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		checkOut := now
		visit.CheckOutAt = &checkOut
		visit.CheckOutLat = &params.Lat
		visit.CheckOutLng = &params.Lng
		visit.HoursWorked = roundHours(checkOut.Sub(visit.CheckInAt))
		if err := repo.SaveVisit(ctx, visit); err != nil {
			return err
		}

		if attendance.ClockOut == nil || checkOut.After(*attendance.ClockOut) {
			attendance.ClockOut = &checkOut
		}
		attendance.TotalHours = roundHours2(attendance.TotalHours + visit.HoursWorked)
		if err := repo.Save(ctx, attendance); err != nil {
			return err
		}

		open, err := repo.OpenVisitCount(ctx, attendance.ID)
		if err != nil {
			return err
		}
		if open == 0 {
			return s.dir.UpdateDutyStatus(ctx, tx, params.EmployeeID, enums.DutyStatusOffDuty)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check out")
	}

	ctx = s.logg.WithEmployeeID(ctx, params.EmployeeID.String())
	ctx = s.logg.WithPropertyID(ctx, params.PropertyID.String())
	s.logg.Info(ctx, "employee checked out")
	return attendance, nil
}

func (s *service) Status(ctx context.Context, employeeID uuid.UUID) (*StatusResult, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	attendance, err := s.repo.FindForDay(ctx, employeeID, s.clock.Today())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attendance")
	}
	if attendance == nil {
		return &StatusResult{}, nil
	}

	open := 0
	for _, visit := range attendance.Visits {
		if visit.Open() {
			open++
		}
	}
	return &StatusResult{CheckedIn: true, Attendance: attendance, OpenVisits: open}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		EmployeeID: params.EmployeeID,
		From:       params.From,
		To:         params.To,
		Status:     params.Status,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attendance")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) resolve(ctx context.Context, params CheckParams) (*models.Employee, *models.Property, error) {
	if params.EmployeeID == uuid.Nil || params.PropertyID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "employee and property ids required")
	}

	employee, err := s.dir.GetEmployee(ctx, params.EmployeeID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	if employee == nil || !employee.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
	}

	property, err := s.dir.GetProperty(ctx, params.PropertyID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if property == nil || !property.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	return employee, property, nil
}

func (s *service) authorize(ctx context.Context, params CheckParams, at time.Time) error {
	ok, err := s.authz.Authorized(ctx, params.EmployeeID, params.PropertyID, at)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "employee is not assigned to this property")
	}
	return nil
}

func (s *service) enforceGeofence(property *models.Property, lat, lng float64) error {
	radius := property.GeofenceRadiusM
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusM
	}
	if !geo.WithinRadius(property.Location.Lat, property.Location.Lng, lat, lng, radius) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "location is outside the property geofence")
	}
	return nil
}

func roundHours(d time.Duration) float64 {
	return roundHours2(d.Hours())
}

func roundHours2(hours float64) float64 {
	return math.Round(hours*100) / 100
}
