package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/attendance"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// AttendanceController serves employee check-in and check-out.
type AttendanceController struct {
	svc  attendance.Service
	logg *logger.Logger
}

// NewAttendanceController wires the attendance handlers.
func NewAttendanceController(svc attendance.Service, logg *logger.Logger) *AttendanceController {
	return &AttendanceController{svc: svc, logg: logg}
}

type checkRequest struct {
	PropertyID string  `json:"property_id" validate:"required,uuid"`
	Lat        float64 `json:"lat" validate:"required"`
	Lng        float64 `json:"lng" validate:"required"`
}

// CheckIn records the start of a shift after the geofence check.
func (c *AttendanceController) CheckIn(w http.ResponseWriter, r *http.Request) {
	c.check(w, r, c.svc.CheckIn)
}

// CheckOut closes today's open attendance row.
func (c *AttendanceController) CheckOut(w http.ResponseWriter, r *http.Request) {
	c.check(w, r, c.svc.CheckOut)
}

// Status reports whether the caller is checked in today.
func (c *AttendanceController) Status(w http.ResponseWriter, r *http.Request) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	result, err := c.svc.Status(r.Context(), claims.SubjectID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

func (c *AttendanceController) check(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, params attendance.CheckParams) (*models.Attendance, error)) {
	claims, err := actorClaims(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var body checkRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_id"))
		return
	}

	row, err := fn(r.Context(), attendance.CheckParams{
		EmployeeID: claims.SubjectID,
		PropertyID: propertyID,
		Lat:        body.Lat,
		Lng:        body.Lng,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, row)
}
