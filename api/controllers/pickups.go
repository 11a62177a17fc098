package controllers

import (
	"net/http"
	"time"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/internal/pickups"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// PickupsController serves the resident-facing pickup request endpoints.
type PickupsController struct {
	svc  pickups.Service
	clk  *clock.Service
	logg *logger.Logger
}

// NewPickupsController wires the pickup handlers.
func NewPickupsController(svc pickups.Service, clk *clock.Service, logg *logger.Logger) *PickupsController {
	return &PickupsController{svc: svc, clk: clk, logg: logg}
}

type createPickupRequest struct {
	Date                string  `json:"date"`
	TimeSlot            string  `json:"time_slot" validate:"required"`
	SpecialInstructions *string `json:"special_instructions"`
}

// Create records an on-demand pickup for the authenticated resident.
func (c *PickupsController) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body createPickupRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	var date time.Time
	if body.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", body.Date, c.clk.Location())
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date"))
			return
		}
		date = parsed
	}

	request, err := c.svc.CreateOnDemand(r.Context(), pickups.CreateOnDemandParams{
		UserID:              claims.SubjectID,
		Date:                date,
		TimeSlot:            body.TimeSlot,
		SpecialInstructions: body.SpecialInstructions,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, request)
}

// List returns the caller's pickup requests, newest first.
func (c *PickupsController) List(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	params := pickups.ListParams{
		UserID: &claims.SubjectID,
		Limit:  queryInt(r, "limit"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParsePickupStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		params.Statuses = []enums.PickupStatus{status}
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		pickupType, err := enums.ParsePickupType(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
			return
		}
		params.Type = &pickupType
	}

	result, err := c.svc.List(r.Context(), params)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WritePage(w, result.Items, len(result.Items), result.Cursor)
}

// Get returns one pickup request, restricted to the owning resident.
func (c *PickupsController) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	id, err := pathUUID(r, "requestID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	request, err := c.svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if claims.Role == enums.RoleUser && (request.UserID == nil || *request.UserID != claims.SubjectID) {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.New(pkgerrors.CodeNotFound, "pickup request not found"))
		return
	}
	responses.WriteSuccess(w, http.StatusOK, request)
}
