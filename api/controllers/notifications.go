package controllers

import (
	"net/http"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/notifications"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// NotificationsController serves in-app notification endpoints shared by
// every authenticated role.
type NotificationsController struct {
	svc  notifications.Service
	logg *logger.Logger
}

// NewNotificationsController wires the notification handlers.
func NewNotificationsController(svc notifications.Service, logg *logger.Logger) *NotificationsController {
	return &NotificationsController{svc: svc, logg: logg}
}

// List returns the caller's notifications, newest first.
func (c *NotificationsController) List(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	result, err := c.svc.List(r.Context(), notifications.ListParams{
		RecipientID: claims.SubjectID,
		Limit:       queryInt(r, "limit"),
		Cursor:      r.URL.Query().Get("cursor"),
		UnreadOnly:  r.URL.Query().Get("unread") == "true",
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

// MarkRead marks one of the caller's notifications as read.
func (c *NotificationsController) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "notificationID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.MarkRead(r.Context(), claims.SubjectID, id); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]bool{"read": true})
}

// MarkAllRead marks every unread notification for the caller.
func (c *NotificationsController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	updated, err := c.svc.MarkAllRead(r.Context(), claims.SubjectID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]int64{"updated": updated})
}

// GetSettings returns the caller's notification preferences, creating
// defaults when none exist yet.
func (c *NotificationsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	setting, err := c.svc.GetSettings(r.Context(), claims.SubjectID, claims.Role)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, setting)
}

type updateSettingsRequest struct {
	NewTaskAssigned     bool `json:"new_task_assigned"`
	IssueUpdates        bool `json:"issue_updates"`
	TaskStatus          bool `json:"task_status"`
	ClockInOutReminders bool `json:"clock_in_out_reminders"`
	AdminInstructions   bool `json:"admin_instructions"`
}

// UpdateSettings replaces the caller's notification preferences.
func (c *NotificationsController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body updateSettingsRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	setting := &models.NotificationSetting{
		RecipientID:         claims.SubjectID,
		Role:                claims.Role,
		NewTaskAssigned:     body.NewTaskAssigned,
		IssueUpdates:        body.IssueUpdates,
		TaskStatus:          body.TaskStatus,
		ClockInOutReminders: body.ClockInOutReminders,
		AdminInstructions:   body.AdminInstructions,
	}
	if err := c.svc.UpdateSettings(r.Context(), setting); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, setting)
}
