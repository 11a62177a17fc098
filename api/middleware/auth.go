package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/curbsideops/curbside-backend/api/responses"
	pkgauth "github.com/curbsideops/curbside-backend/pkg/auth"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// Auth validates the bearer token and stores the claims on the context.
func Auth(jwt config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				responses.WriteError(r.Context(), w, logg,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(jwt, token)
			if err != nil {
				responses.WriteError(r.Context(), w, logg,
					pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = logg.WithActorRole(ctx, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not allowed.
func RequireRole(logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), w, logg,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted"))
		})
	}
}
