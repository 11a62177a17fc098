package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pkgauth "github.com/curbsideops/curbside-backend/pkg/auth"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/security"
)

type fakeCredentials struct {
	employee *models.Employee
	user     *models.User
	admin    *models.Admin
	touched  []enums.Role
}

func (f *fakeCredentials) GetEmployeeByEmail(_ context.Context, email string) (*models.Employee, error) {
	if f.employee != nil && f.employee.Email == email {
		return f.employee, nil
	}
	return nil, nil
}

func (f *fakeCredentials) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeCredentials) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	if f.admin != nil && f.admin.Email == email {
		return f.admin, nil
	}
	return nil, nil
}

func (f *fakeCredentials) TouchLastLogin(_ context.Context, role enums.Role, _ uuid.UUID, _ time.Time) error {
	f.touched = append(f.touched, role)
	return nil
}

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "curbside-test",
	ExpirationMinutes: 60,
}

func newService(t *testing.T, creds *fakeCredentials) Service {
	t.Helper()
	// Tokens are minted off the injected clock but parsed against the
	// real one, so the test clock has to track wall time.
	svc, err := NewService(Params{
		Credentials: creds,
		JWT:         testJWT,
		Logger:      logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
		Now:         time.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func hash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

func TestLoginEmployeeIssuesToken(t *testing.T) {
	creds := &fakeCredentials{
		employee: &models.Employee{
			ID:           uuid.New(),
			Email:        "worker@example.com",
			PasswordHash: hash(t, "hunter2!"),
			IsActive:     true,
		},
	}
	svc := newService(t, creds)

	result, err := svc.Login(context.Background(), LoginParams{
		Email:    "Worker@Example.com",
		Password: "hunter2!",
		Role:     enums.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.SubjectID != creds.employee.ID || result.Role != enums.RoleEmployee {
		t.Fatalf("unexpected result %+v", result)
	}

	claims, err := pkgauth.ParseAccessToken(testJWT, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.SubjectID != creds.employee.ID || claims.Role != enums.RoleEmployee {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(creds.touched) != 1 || creds.touched[0] != enums.RoleEmployee {
		t.Fatalf("expected last-login touch, got %v", creds.touched)
	}
}

func TestLoginUserCarriesPropertyID(t *testing.T) {
	propertyID := uuid.New()
	creds := &fakeCredentials{
		user: &models.User{
			ID:           uuid.New(),
			Email:        "resident@example.com",
			PasswordHash: hash(t, "s3cret!!"),
			PropertyID:   propertyID,
			IsActive:     true,
		},
	}
	svc := newService(t, creds)

	result, err := svc.Login(context.Background(), LoginParams{
		Email:    "resident@example.com",
		Password: "s3cret!!",
		Role:     enums.RoleUser,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.PropertyID == nil || *result.PropertyID != propertyID {
		t.Fatalf("expected property id, got %v", result.PropertyID)
	}
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	creds := &fakeCredentials{
		employee: &models.Employee{
			ID:           uuid.New(),
			Email:        "worker@example.com",
			PasswordHash: hash(t, "hunter2!"),
			IsActive:     true,
		},
	}
	svc := newService(t, creds)

	_, err := svc.Login(context.Background(), LoginParams{
		Email:    "worker@example.com",
		Password: "wrong",
		Role:     enums.RoleEmployee,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownAccountUnauthorized(t *testing.T) {
	svc := newService(t, &fakeCredentials{})

	_, err := svc.Login(context.Background(), LoginParams{
		Email:    "nobody@example.com",
		Password: "whatever",
		Role:     enums.RoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveAccountUnauthorized(t *testing.T) {
	creds := &fakeCredentials{
		admin: &models.Admin{
			ID:           uuid.New(),
			Email:        "ops@example.com",
			PasswordHash: hash(t, "adminpass"),
			IsActive:     false,
		},
	}
	svc := newService(t, creds)

	_, err := svc.Login(context.Background(), LoginParams{
		Email:    "ops@example.com",
		Password: "adminpass",
		Role:     enums.RoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
