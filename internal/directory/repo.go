// Package directory provides shared lookups for employees, users, and
// properties that the domain services build on.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// Repository exposes the directory persistence surface.
type Repository interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	ListActiveEmployeesForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Employee, error)
	UpdateDutyStatus(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID, status enums.DutyStatus) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListRoutineUsers(ctx context.Context) ([]models.User, error)

	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)

	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)

	TouchLastLogin(ctx context.Context, role enums.Role, id uuid.UUID, at time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var row models.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var row models.Employee
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListActiveEmployeesForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Employee, error) {
	var rows []models.Employee
	err := r.db.WithContext(ctx).
		Joins("JOIN employee_property_assignments epa ON epa.employee_id = employees.id").
		Where("epa.property_id = ? AND epa.valid_from <= now() AND (epa.valid_until IS NULL OR epa.valid_until > now())", propertyID).
		Where("employees.is_active = true").
		Distinct("employees.*").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) UpdateDutyStatus(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID, status enums.DutyStatus) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", employeeID).
		UpdateColumn("duty_status", status).Error
}

func (r *repositoryImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListRoutineUsers(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("routine_enabled = true AND is_active = true").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var row models.Admin
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) TouchLastLogin(ctx context.Context, role enums.Role, id uuid.UUID, at time.Time) error {
	var model any
	switch role {
	case enums.RoleEmployee:
		model = &models.Employee{}
	case enums.RoleUser:
		model = &models.User{}
	case enums.RoleAdmin:
		model = &models.Admin{}
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *repositoryImpl) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var row models.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
