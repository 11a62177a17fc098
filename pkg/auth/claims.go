package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SubjectID  uuid.UUID
	Role       enums.Role
	PropertyID *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	SubjectID  uuid.UUID  `json:"subject_id"`
	Role       enums.Role `json:"role"`
	PropertyID *uuid.UUID `json:"property_id,omitempty"`
	jwt.RegisteredClaims
}
