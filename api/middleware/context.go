package middleware

import (
	"context"

	pkgauth "github.com/curbsideops/curbside-backend/pkg/auth"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimsKey    contextKey = "claims"
)

// RequestIDFromContext returns the request id set by RequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ClaimsFromContext returns the authenticated claims set by Auth, if any.
func ClaimsFromContext(ctx context.Context) *pkgauth.AccessTokenClaims {
	claims, _ := ctx.Value(claimsKey).(*pkgauth.AccessTokenClaims)
	return claims
}
