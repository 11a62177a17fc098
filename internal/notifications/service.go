package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/pagination"
)

// Service defines notification dispatch, listing, and settings operations.
type Service interface {
	Send(ctx context.Context, msg Message)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	GetSettings(ctx context.Context, recipientID uuid.UUID, role enums.Role) (*models.NotificationSetting, error)
	UpdateSettings(ctx context.Context, setting *models.NotificationSetting) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// Message is one notification to deliver in-app.
type Message struct {
	RecipientID uuid.UUID
	Role        enums.Role
	Type        enums.NotificationType
	Title       string
	Body        string
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Send persists the notification, honoring the recipient's settings.
// Delivery is best-effort: failures are logged and swallowed so the
// triggering operation never rolls back over a notification.
func (s *service) Send(ctx context.Context, msg Message) {
	if msg.RecipientID == uuid.Nil || !msg.Role.IsValid() || !msg.Type.IsValid() {
		s.logg.Warn(ctx, "dropping malformed notification")
		return
	}

	setting, err := s.repo.GetSetting(ctx, msg.RecipientID, msg.Role)
	if err != nil {
		s.logg.Error(ctx, "loading notification settings", err)
		// fall through: missing settings never block delivery
	}
	if setting != nil && !setting.Allows(msg.Type) {
		return
	}

	row := models.Notification{
		RecipientID: msg.RecipientID,
		Role:        msg.Role,
		Type:        msg.Type,
		Title:       msg.Title,
		Message:     msg.Body,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		ctx = s.logg.WithField(ctx, "notification_type", string(msg.Type))
		s.logg.Error(ctx, "persisting notification", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       pagination.LimitWithBuffer(params.Limit),
		UnreadOnly:  params.UnreadOnly,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) GetSettings(ctx context.Context, recipientID uuid.UUID, role enums.Role) (*models.NotificationSetting, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	setting, err := s.repo.GetSetting(ctx, recipientID, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification settings")
	}
	if setting == nil {
		// Defaults apply until the recipient customizes anything.
		return &models.NotificationSetting{
			RecipientID:         recipientID,
			Role:                role,
			NewTaskAssigned:     true,
			IssueUpdates:        true,
			TaskStatus:          true,
			ClockInOutReminders: true,
			AdminInstructions:   true,
		}, nil
	}
	return setting, nil
}

func (s *service) UpdateSettings(ctx context.Context, setting *models.NotificationSetting) error {
	if setting == nil || setting.RecipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !setting.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification settings")
	}
	return nil
}
