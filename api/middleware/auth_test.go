package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pkgauth "github.com/curbsideops/curbside-backend/pkg/auth"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "curbside-test",
	ExpirationMinutes: 60,
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT, time.Now(), pkgauth.AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthStoresClaims(t *testing.T) {
	var seen *pkgauth.AccessTokenClaims
	handler := Auth(testJWT, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleEmployee))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.Role != enums.RoleEmployee {
		t.Fatalf("expected employee claims, got %+v", seen)
	}
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	chain := Auth(testJWT, testLogger())(
		RequireRole(testLogger(), enums.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleEmployee))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRoleAllowsMatch(t *testing.T) {
	ran := false
	chain := Auth(testJWT, testLogger())(
		RequireRole(testLogger(), enums.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ran = true
		})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin))
	chain.ServeHTTP(httptest.NewRecorder(), req)
	if !ran {
		t.Fatal("expected handler to run")
	}
}
