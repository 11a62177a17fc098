package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
)

// Repository exposes persistence helpers for standing and temporary
// employee-property assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.EmployeePropertyAssignment) error
	End(ctx context.Context, assignmentID uuid.UUID, at time.Time) (bool, error)
	ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.EmployeePropertyAssignment, error)
	ListForProperty(ctx context.Context, propertyID uuid.UUID, at time.Time) ([]models.EmployeePropertyAssignment, error)
	ActiveForPair(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (*models.EmployeePropertyAssignment, error)
	CreateTemporary(ctx context.Context, assignment *models.TemporaryAssignment) error
	TemporaryOverlapping(ctx context.Context, employeeID, propertyID uuid.UUID, from, to time.Time) (*models.TemporaryAssignment, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an assignments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, assignment *models.EmployeePropertyAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) End(ctx context.Context, assignmentID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EmployeePropertyAssignment{}).
		Where("id = ? AND valid_until IS NULL", assignmentID).
		UpdateColumn("valid_until", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.EmployeePropertyAssignment, error) {
	var rows []models.EmployeePropertyAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListForProperty(ctx context.Context, propertyID uuid.UUID, at time.Time) ([]models.EmployeePropertyAssignment, error) {
	var rows []models.EmployeePropertyAssignment
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", propertyID, at, at).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ActiveForPair(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (*models.EmployeePropertyAssignment, error) {
	var row models.EmployeePropertyAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND property_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)",
			employeeID, propertyID, at, at).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) CreateTemporary(ctx context.Context, assignment *models.TemporaryAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) TemporaryOverlapping(ctx context.Context, employeeID, propertyID uuid.UUID, from, to time.Time) (*models.TemporaryAssignment, error) {
	var row models.TemporaryAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND property_id = ? AND start_at < ? AND end_at > ?", employeeID, propertyID, to, from).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
