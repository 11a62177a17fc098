package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Repository exposes persistence helpers for attendance rows and their
// property visits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForDay(ctx context.Context, employeeID uuid.UUID, day time.Time) (*models.Attendance, error)
	Create(ctx context.Context, attendance *models.Attendance) error
	Save(ctx context.Context, attendance *models.Attendance) error
	FindVisit(ctx context.Context, attendanceID, propertyID uuid.UUID) (*models.PropertyVisit, error)
	CreateVisit(ctx context.Context, visit *models.PropertyVisit) error
	SaveVisit(ctx context.Context, visit *models.PropertyVisit) error
	OpenVisitCount(ctx context.Context, attendanceID uuid.UUID) (int64, error)
	List(ctx context.Context, params listParams) ([]models.Attendance, *pagination.Cursor, error)
}

// Directory is the slice of employee/property persistence attendance needs.
type Directory interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	UpdateDutyStatus(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID, status enums.DutyStatus) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an attendance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	EmployeeID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Status     *enums.AttendanceStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindForDay(ctx context.Context, employeeID uuid.UUID, day time.Time) (*models.Attendance, error) {
	var row models.Attendance
	err := r.db.WithContext(ctx).
		Preload("Visits").
		Where("employee_id = ? AND shift_date = ?", employeeID, day.Format("2006-01-02")).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Create(ctx context.Context, attendance *models.Attendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

func (r *repositoryImpl) Save(ctx context.Context, attendance *models.Attendance) error {
	return r.db.WithContext(ctx).Omit("Visits").Save(attendance).Error
}

func (r *repositoryImpl) FindVisit(ctx context.Context, attendanceID, propertyID uuid.UUID) (*models.PropertyVisit, error) {
	var row models.PropertyVisit
	err := r.db.WithContext(ctx).
		Where("attendance_id = ? AND property_id = ?", attendanceID, propertyID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateVisit(ctx context.Context, visit *models.PropertyVisit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *repositoryImpl) SaveVisit(ctx context.Context, visit *models.PropertyVisit) error {
	return r.db.WithContext(ctx).Save(visit).Error
}

func (r *repositoryImpl) OpenVisitCount(ctx context.Context, attendanceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PropertyVisit{}).
		Where("attendance_id = ? AND check_out_at IS NULL", attendanceID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Attendance, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Attendance{}).Preload("Visits")
	if params.EmployeeID != nil {
		query = query.Where("employee_id = ?", *params.EmployeeID)
	}
	if params.From != nil {
		query = query.Where("shift_date >= ?", params.From.Format("2006-01-02"))
	}
	if params.To != nil {
		query = query.Where("shift_date < ?", params.To.Format("2006-01-02"))
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Attendance
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}
