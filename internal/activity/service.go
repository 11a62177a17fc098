package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Service records and lists task lifecycle activity.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Entry describes one lifecycle event to append.
type Entry struct {
	Kind        enums.ActivityType
	TaskID      *uuid.UUID
	EmployeeID  *uuid.UUID
	IssueID     *uuid.UUID
	UnitNumber  string
	RequestType *enums.PickupType
	OccurredAt  time.Time
}

// ListParams filters the activity feed.
type ListParams struct {
	Kind       *enums.ActivityType
	EmployeeID *uuid.UUID
	TaskID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     string
}

// ListResult wraps entries plus the next-page cursor.
type ListResult struct {
	Items  []models.ActivityLog `json:"items"`
	Cursor string               `json:"cursor"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires activity dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	if !entry.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid activity kind")
	}

	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now().UTC()
	}

	row := models.ActivityLog{
		Kind:        entry.Kind,
		TaskID:      entry.TaskID,
		EmployeeID:  entry.EmployeeID,
		IssueID:     entry.IssueID,
		UnitNumber:  entry.UnitNumber,
		RequestType: entry.RequestType,
		OccurredAt:  occurredAt,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record activity")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		Kind:       params.Kind,
		EmployeeID: params.EmployeeID,
		TaskID:     params.TaskID,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
