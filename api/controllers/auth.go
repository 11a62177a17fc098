package controllers

import (
	"net/http"

	"github.com/curbsideops/curbside-backend/api/responses"
	"github.com/curbsideops/curbside-backend/api/validators"
	"github.com/curbsideops/curbside-backend/internal/auth"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// AuthController serves login for all three roles.
type AuthController struct {
	svc  auth.Service
	logg *logger.Logger
}

// NewAuthController wires the auth handlers.
func NewAuthController(svc auth.Service, logg *logger.Logger) *AuthController {
	return &AuthController{svc: svc, logg: logg}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=employee user admin"`
}

// Login authenticates the account and issues a JWT.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := validators.DecodeJSONBody(w, r, &body); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}

	result, err := c.svc.Login(r.Context(), auth.LoginParams{
		Email:    body.Email,
		Password: body.Password,
		Role:     enums.Role(body.Role),
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}
