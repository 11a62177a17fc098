package pickups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Repository persists pickup requests. Write helpers take an optional
// transaction handle so the task lifecycle can cascade request updates
// inside its own transaction.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error)
	Create(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error
	LinkTask(ctx context.Context, tx *gorm.DB, requestID, taskID uuid.UUID) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.PickupStatus) error
	UpdateDetails(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error
	List(ctx context.Context, params listRequestsParams) ([]models.PickupRequest, *pagination.Cursor, error)
	RoutineExists(ctx context.Context, userID, propertyID uuid.UUID, date time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a pickup-request repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listRequestsParams struct {
	UserID     *uuid.UUID
	PropertyID *uuid.UUID
	Statuses   []enums.PickupStatus
	Type       *enums.PickupType
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	var row models.PickupRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Create(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error {
	return r.conn(tx).WithContext(ctx).Create(request).Error
}

func (r *repositoryImpl) LinkTask(ctx context.Context, tx *gorm.DB, requestID, taskID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("id = ?", requestID).
		Update("task_id", taskID).Error
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.PickupStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error
}

// requestDetailColumns are the fields an admin reassignment may rewrite.
var requestDetailColumns = []string{
	"property_id", "date", "time_slot", "slot_start_minutes",
	"slot_duration_minutes", "special_instructions", "updated_at",
}

func (r *repositoryImpl) UpdateDetails(ctx context.Context, tx *gorm.DB, request *models.PickupRequest) error {
	request.UpdatedAt = time.Now().UTC()
	return r.conn(tx).WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("id = ?", request.ID).
		Select(requestDetailColumns).
		Updates(request).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listRequestsParams) ([]models.PickupRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.PickupRequest{})
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.PropertyID != nil {
		query = query.Where("property_id = ?", *params.PropertyID)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.From != nil {
		query = query.Where("date >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("date < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.PickupRequest
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

func (r *repositoryImpl) RoutineExists(ctx context.Context, userID, propertyID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("user_id = ? AND property_id = ? AND date = ? AND type = ?",
			userID, propertyID, date, enums.PickupTypeRoutine).
		Count(&count).Error
	return count > 0, err
}
