package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Repository exposes persistence helpers for tasks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error

	// UpdateVersioned persists lifecycle fields guarded by the version
	// column. It returns false when another writer won the race.
	UpdateVersioned(ctx context.Context, task *models.Task) (bool, error)

	CountInHour(ctx context.Context, propertyID uuid.UUID, hourStart, hourEnd time.Time, exclude *uuid.UUID) (int64, error)
	ListExpired(ctx context.Context, statuses []enums.TaskStatus, before time.Time, limit int) ([]models.Task, error)
	List(ctx context.Context, params listTasksParams) ([]models.Task, *pagination.Cursor, error)
	CountByStatus(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (map[enums.TaskStatus]int64, error)
	NextPending(ctx context.Context, employeeID uuid.UUID, after time.Time, limit int) ([]models.Task, error)
	CompletedBetween(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]models.Task, error)

	CreateIssue(ctx context.Context, issue *models.IssueReport) error
	FindIssue(ctx context.Context, taskID, employeeID uuid.UUID) (*models.IssueReport, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a tasks repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTasksParams struct {
	EmployeeID *uuid.UUID
	PropertyID *uuid.UUID
	Statuses   []enums.TaskStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     *pagination.Cursor
}

// versionedColumns are the fields lifecycle transitions may touch.
var versionedColumns = []string{
	"employee_id", "assigned_employees", "property_id",
	"scheduled_start", "scheduled_end",
	"actual_start", "actual_end", "status", "delay_reason", "issue_id",
	"version", "updated_at",
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var row models.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repositoryImpl) UpdateVersioned(ctx context.Context, task *models.Task) (bool, error) {
	prev := task.Version
	task.Version = prev + 1
	task.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND version = ?", task.ID, prev).
		Select(versionedColumns).
		Updates(task)
	if result.Error != nil {
		task.Version = prev
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		task.Version = prev
		return false, nil
	}
	return true, nil
}

func (r *repositoryImpl) CountInHour(ctx context.Context, propertyID uuid.UUID, hourStart, hourEnd time.Time, exclude *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("property_id = ? AND scheduled_start >= ? AND scheduled_start < ?", propertyID, hourStart, hourEnd).
		Where("status NOT IN ?", []enums.TaskStatus{enums.TaskStatusCompleted, enums.TaskStatusMissed, enums.TaskStatusDelayed})
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ListExpired(ctx context.Context, statuses []enums.TaskStatus, before time.Time, limit int) ([]models.Task, error) {
	var rows []models.Task
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("scheduled_end < ?", before).
		Order("scheduled_end ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) List(ctx context.Context, params listTasksParams) ([]models.Task, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Task{})
	if params.EmployeeID != nil {
		query = query.Where("employee_id = ? OR ? = ANY(assigned_employees)", *params.EmployeeID, *params.EmployeeID)
	}
	if params.PropertyID != nil {
		query = query.Where("property_id = ?", *params.PropertyID)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if params.From != nil {
		query = query.Where("scheduled_start >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("scheduled_start < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Task
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

func (r *repositoryImpl) CountByStatus(ctx context.Context, employeeID uuid.UUID, from, to time.Time) (map[enums.TaskStatus]int64, error) {
	type statusCount struct {
		Status enums.TaskStatus
		Total  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("status, count(*) AS total").
		Where("(employee_id = ? OR ? = ANY(assigned_employees))", employeeID, employeeID).
		Where("scheduled_start >= ? AND scheduled_start < ?", from, to).
		Group("status").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}

	out := make(map[enums.TaskStatus]int64, len(counts))
	for _, c := range counts {
		out[c.Status] = c.Total
	}
	return out, nil
}

func (r *repositoryImpl) NextPending(ctx context.Context, employeeID uuid.UUID, after time.Time, limit int) ([]models.Task, error) {
	var rows []models.Task
	err := r.db.WithContext(ctx).
		Where("(employee_id = ? OR ? = ANY(assigned_employees))", employeeID, employeeID).
		Where("status IN ?", []enums.TaskStatus{enums.TaskStatusPending, enums.TaskStatusScheduled}).
		Where("scheduled_end > ?", after).
		Order("scheduled_start ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CompletedBetween(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]models.Task, error) {
	var rows []models.Task
	err := r.db.WithContext(ctx).
		Where("(employee_id = ? OR ? = ANY(assigned_employees))", employeeID, employeeID).
		Where("status = ?", enums.TaskStatusCompleted).
		Where("actual_end >= ? AND actual_end < ?", from, to).
		Order("actual_end DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateIssue(ctx context.Context, issue *models.IssueReport) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *repositoryImpl) FindIssue(ctx context.Context, taskID, employeeID uuid.UUID) (*models.IssueReport, error) {
	var row models.IssueReport
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND employee_id = ?", taskID, employeeID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
