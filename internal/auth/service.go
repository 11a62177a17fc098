package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/curbsideops/curbside-backend/pkg/auth"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/enums"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/security"
)

// Service authenticates employees, users, and admins and issues JWTs.
type Service interface {
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
}

// Credentials is the account-lookup surface logins need.
type Credentials interface {
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	TouchLastLogin(ctx context.Context, role enums.Role, id uuid.UUID, at time.Time) error
}

// LoginParams carries one login attempt.
type LoginParams struct {
	Email    string
	Password string
	Role     enums.Role
}

// LoginResult is the issued token plus identity echo for clients.
type LoginResult struct {
	Token      string     `json:"token"`
	SubjectID  uuid.UUID  `json:"subject_id"`
	Role       enums.Role `json:"role"`
	PropertyID *uuid.UUID `json:"property_id,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Params wires the auth service.
type Params struct {
	Credentials Credentials
	JWT         config.JWTConfig
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	creds Credentials
	jwt   config.JWTConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService validates dependencies and returns the auth service.
func NewService(p Params) (Service, error) {
	if p.Credentials == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth credentials store required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth logger required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{creds: p.Credentials, jwt: p.JWT, logg: p.Logger, now: p.Now}, nil
}

func (s *service) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}
	if !params.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	subjectID, hash, propertyID, err := s.lookup(ctx, params.Role, email)
	if err != nil {
		return nil, err
	}

	match, err := security.VerifyPassword(params.Password, hash)
	if err != nil || !match {
		// Invalid hashes and wrong passwords look identical to callers.
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	token, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		SubjectID:  subjectID,
		Role:       params.Role,
		PropertyID: propertyID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.creds.TouchLastLogin(ctx, params.Role, subjectID, now); err != nil {
		// Best effort; the login itself already succeeded.
		s.logg.Error(ctx, "updating last login", err)
	}

	ctx = s.logg.WithActorRole(ctx, string(params.Role))
	s.logg.Info(ctx, "login succeeded")

	return &LoginResult{
		Token:      token,
		SubjectID:  subjectID,
		Role:       params.Role,
		PropertyID: propertyID,
		ExpiresAt:  now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
	}, nil
}

// lookup resolves the account by role. Unknown accounts and inactive ones
// return the same unauthorized error to avoid account enumeration.
func (s *service) lookup(ctx context.Context, role enums.Role, email string) (uuid.UUID, string, *uuid.UUID, error) {
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

	switch role {
	case enums.RoleEmployee:
		employee, err := s.creds.GetEmployeeByEmail(ctx, email)
		if err != nil {
			return uuid.Nil, "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
		}
		if employee == nil || !employee.IsActive {
			return uuid.Nil, "", nil, invalid
		}
		return employee.ID, employee.PasswordHash, nil, nil

	case enums.RoleUser:
		user, err := s.creds.GetUserByEmail(ctx, email)
		if err != nil {
			return uuid.Nil, "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user == nil || !user.IsActive {
			return uuid.Nil, "", nil, invalid
		}
		propertyID := user.PropertyID
		return user.ID, user.PasswordHash, &propertyID, nil

	case enums.RoleAdmin:
		admin, err := s.creds.GetAdminByEmail(ctx, email)
		if err != nil {
			return uuid.Nil, "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
		}
		if admin == nil || !admin.IsActive {
			return uuid.Nil, "", nil, invalid
		}
		return admin.ID, admin.PasswordHash, nil, nil
	}
	return uuid.Nil, "", nil, invalid
}
