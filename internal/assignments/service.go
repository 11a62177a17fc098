package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
)

// Service manages employee-property assignments and answers the
// authorization questions attendance and task operations ask.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.EmployeePropertyAssignment, error)
	End(ctx context.Context, assignmentID uuid.UUID) error
	ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.EmployeePropertyAssignment, error)
	CreateTemporary(ctx context.Context, params CreateTemporaryParams) (*models.TemporaryAssignment, error)

	// Authorized reports whether the employee may act at the property at
	// the given instant, via a standing or temporary assignment.
	Authorized(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (bool, error)
}

// CreateParams describes a standing assignment.
type CreateParams struct {
	EmployeeID uuid.UUID
	PropertyID uuid.UUID
	IsPrimary  bool
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// CreateTemporaryParams describes a short-lived assignment.
type CreateTemporaryParams struct {
	EmployeeID uuid.UUID
	PropertyID uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	AssignedBy uuid.UUID
	Reason     string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires assignment dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.EmployeePropertyAssignment, error) {
	if params.EmployeeID == uuid.Nil || params.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee and property ids required")
	}
	if params.ValidUntil != nil && !params.ValidUntil.After(params.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}

	validFrom := params.ValidFrom
	if validFrom.IsZero() {
		validFrom = s.now().UTC()
	}

	existing, err := s.repo.ActiveForPair(ctx, params.EmployeeID, params.PropertyID, validFrom)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing assignment")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment already active for employee and property")
	}

	row := models.EmployeePropertyAssignment{
		EmployeeID: params.EmployeeID,
		PropertyID: params.PropertyID,
		IsPrimary:  params.IsPrimary,
		ValidFrom:  validFrom,
		ValidUntil: params.ValidUntil,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}
	return &row, nil
}

func (s *service) End(ctx context.Context, assignmentID uuid.UUID) error {
	if assignmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	ended, err := s.repo.End(ctx, assignmentID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end assignment")
	}
	if !ended {
		return pkgerrors.New(pkgerrors.CodeNotFound, "open assignment not found")
	}
	return nil
}

func (s *service) ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.EmployeePropertyAssignment, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	rows, err := s.repo.ListForEmployee(ctx, employeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return rows, nil
}

func (s *service) CreateTemporary(ctx context.Context, params CreateTemporaryParams) (*models.TemporaryAssignment, error) {
	if params.EmployeeID == uuid.Nil || params.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee and property ids required")
	}
	if params.AssignedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigning admin id required")
	}
	if params.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if !params.EndAt.After(params.StartAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_at must be after start_at")
	}

	row := models.TemporaryAssignment{
		EmployeeID: params.EmployeeID,
		PropertyID: params.PropertyID,
		StartAt:    params.StartAt,
		EndAt:      params.EndAt,
		AssignedBy: params.AssignedBy,
		Reason:     params.Reason,
	}
	if err := s.repo.CreateTemporary(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create temporary assignment")
	}
	return &row, nil
}

func (s *service) Authorized(ctx context.Context, employeeID, propertyID uuid.UUID, at time.Time) (bool, error) {
	standing, err := s.repo.ActiveForPair(ctx, employeeID, propertyID, at)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check standing assignment")
	}
	if standing != nil {
		return true, nil
	}

	temp, err := s.repo.TemporaryOverlapping(ctx, employeeID, propertyID, at, at.Add(time.Nanosecond))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check temporary assignment")
	}
	return temp != nil, nil
}
