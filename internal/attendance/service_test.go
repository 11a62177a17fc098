package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

type fakeRepo struct {
	attendance *models.Attendance
	visits     []*models.PropertyVisit
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindForDay(_ context.Context, employeeID uuid.UUID, _ time.Time) (*models.Attendance, error) {
	if f.attendance == nil || f.attendance.EmployeeID != employeeID {
		return nil, nil
	}
	copy := *f.attendance
	copy.Visits = nil
	for _, v := range f.visits {
		copy.Visits = append(copy.Visits, *v)
	}
	return &copy, nil
}

func (f *fakeRepo) Create(_ context.Context, a *models.Attendance) error {
	a.ID = uuid.New()
	stored := *a
	f.attendance = &stored
	return nil
}

func (f *fakeRepo) Save(_ context.Context, a *models.Attendance) error {
	stored := *a
	f.attendance = &stored
	return nil
}

func (f *fakeRepo) FindVisit(_ context.Context, attendanceID, propertyID uuid.UUID) (*models.PropertyVisit, error) {
	for _, v := range f.visits {
		if v.AttendanceID == attendanceID && v.PropertyID == propertyID {
			copy := *v
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateVisit(_ context.Context, v *models.PropertyVisit) error {
	v.ID = uuid.New()
	stored := *v
	f.visits = append(f.visits, &stored)
	return nil
}

func (f *fakeRepo) SaveVisit(_ context.Context, v *models.PropertyVisit) error {
	for i, existing := range f.visits {
		if existing.ID == v.ID {
			stored := *v
			f.visits[i] = &stored
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) OpenVisitCount(_ context.Context, attendanceID uuid.UUID) (int64, error) {
	var count int64
	for _, v := range f.visits {
		if v.AttendanceID == attendanceID && v.CheckOutAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) List(_ context.Context, _ listParams) ([]models.Attendance, *pagination.Cursor, error) {
	if f.attendance == nil {
		return nil, nil, nil
	}
	return []models.Attendance{*f.attendance}, nil, nil
}

type fakeDirectory struct {
	employee   *models.Employee
	property   *models.Property
	dutyStatus enums.DutyStatus
}

func (f *fakeDirectory) GetEmployee(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	if f.employee == nil || f.employee.ID != id {
		return nil, nil
	}
	return f.employee, nil
}

func (f *fakeDirectory) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	if f.property == nil || f.property.ID != id {
		return nil, nil
	}
	return f.property, nil
}

func (f *fakeDirectory) UpdateDutyStatus(_ context.Context, _ *gorm.DB, _ uuid.UUID, status enums.DutyStatus) error {
	f.dutyStatus = status
	return nil
}

type fakeAuthz struct{ allowed bool }

func (f *fakeAuthz) Authorized(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
	return f.allowed, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fixture struct {
	svc   Service
	repo  *fakeRepo
	dir   *fakeDirectory
	authz *fakeAuthz
}

const testPropertyLat, testPropertyLng = 39.7392, -104.9903

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	employee := &models.Employee{
		ID:                uuid.New(),
		IsActive:          true,
		ShiftStartMinutes: 9 * 60,
		ShiftEndMinutes:   17 * 60,
	}
	property := &models.Property{ID: uuid.New(), IsActive: true, GeofenceRadiusM: 100}
	property.Location.Lat = testPropertyLat
	property.Location.Lng = testPropertyLng

	repo := &fakeRepo{}
	dir := &fakeDirectory{employee: employee, property: property, dutyStatus: enums.DutyStatusOffDuty}
	authz := &fakeAuthz{allowed: true}

	clk := clock.New(context.Background(), clock.Params{
		Config: config.ClockConfig{Timezone: "America/Denver"},
		Now:    func() time.Time { return now },
	})

	svc, err := NewService(Params{
		Repo:      repo,
		Directory: dir,
		Authz:     authz,
		Tx:        fakeTx{},
		Clock:     clk,
		Config:    config.AttendanceConfig{GraceMinutes: 7, DefaultRadiusM: 100},
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, dir: dir, authz: authz}
}

// denver returns an instant at the given local Denver wall time.
func denver(t *testing.T, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(2026, 6, 15, hour, min, 0, 0, loc)
}

func (fx *fixture) checkParams() CheckParams {
	return CheckParams{
		EmployeeID: fx.dir.employee.ID,
		PropertyID: fx.dir.property.ID,
		Lat:        testPropertyLat,
		Lng:        testPropertyLng,
	}
}

func TestCheckInWithinGraceIsOnTime(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 5))

	attendance, err := fx.svc.CheckIn(context.Background(), fx.checkParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attendance.Status != enums.AttendanceStatusOnTime {
		t.Fatalf("expected on_time, got %s", attendance.Status)
	}
	if fx.dir.dutyStatus != enums.DutyStatusOnDuty {
		t.Fatalf("expected on_duty, got %s", fx.dir.dutyStatus)
	}
}

func TestCheckInAfterGraceIsLate(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 10))

	attendance, err := fx.svc.CheckIn(context.Background(), fx.checkParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attendance.Status != enums.AttendanceStatusLate {
		t.Fatalf("expected late, got %s", attendance.Status)
	}
	if fx.dir.dutyStatus != enums.DutyStatusLate {
		t.Fatalf("expected late duty status, got %s", fx.dir.dutyStatus)
	}
}

func TestCheckInAtGraceBoundaryIsOnTime(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 7))

	attendance, err := fx.svc.CheckIn(context.Background(), fx.checkParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attendance.Status != enums.AttendanceStatusOnTime {
		t.Fatalf("expected on_time at exact grace boundary, got %s", attendance.Status)
	}
}

func TestCheckInOutsideGeofenceForbidden(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	params := fx.checkParams()
	params.Lat = testPropertyLat + 0.01 // ~1.1 km north

	_, err := fx.svc.CheckIn(context.Background(), params)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCheckInUnassignedForbidden(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	fx.authz.allowed = false

	_, err := fx.svc.CheckIn(context.Background(), fx.checkParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCheckInDuplicatePropertyConflict(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))

	if _, err := fx.svc.CheckIn(context.Background(), fx.checkParams()); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	_, err := fx.svc.CheckIn(context.Background(), fx.checkParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCheckInUnknownEmployeeNotFound(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	params := fx.checkParams()
	params.EmployeeID = uuid.New()

	_, err := fx.svc.CheckIn(context.Background(), params)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckOutRoundsHours(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	if _, err := fx.svc.CheckIn(context.Background(), fx.checkParams()); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	// Re-run the service at 12:37 for checkout: 3h37m = 3.6166… → 3.62.
	later := newFixtureAt(t, fx, denver(t, 12, 37))
	attendance, err := later.CheckOut(context.Background(), fx.checkParams())
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if attendance.TotalHours != 3.62 {
		t.Fatalf("expected 3.62 hours, got %v", attendance.TotalHours)
	}
	if fx.dir.dutyStatus != enums.DutyStatusOffDuty {
		t.Fatalf("expected off_duty, got %s", fx.dir.dutyStatus)
	}
}

func TestCheckOutWithoutCheckInNotFound(t *testing.T) {
	fx := newFixture(t, denver(t, 10, 0))

	_, err := fx.svc.CheckOut(context.Background(), fx.checkParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckOutTwiceConflict(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	if _, err := fx.svc.CheckIn(context.Background(), fx.checkParams()); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	later := newFixtureAt(t, fx, denver(t, 15, 0))
	if _, err := later.CheckOut(context.Background(), fx.checkParams()); err != nil {
		t.Fatalf("first check-out failed: %v", err)
	}
	_, err := later.CheckOut(context.Background(), fx.checkParams())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStatusReportsOpenVisits(t *testing.T) {
	fx := newFixture(t, denver(t, 9, 0))
	if _, err := fx.svc.CheckIn(context.Background(), fx.checkParams()); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	status, err := fx.svc.Status(context.Background(), fx.dir.employee.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.CheckedIn || status.OpenVisits != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

// newFixtureAt rebuilds the service around the same fakes with a new clock.
func newFixtureAt(t *testing.T, fx *fixture, now time.Time) Service {
	t.Helper()
	clk := clock.New(context.Background(), clock.Params{
		Config: config.ClockConfig{Timezone: "America/Denver"},
		Now:    func() time.Time { return now },
	})
	svc, err := NewService(Params{
		Repo:      fx.repo,
		Directory: fx.dir,
		Authz:     fx.authz,
		Tx:        fakeTx{},
		Clock:     clk,
		Config:    config.AttendanceConfig{GraceMinutes: 7, DefaultRadiusM: 100},
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
