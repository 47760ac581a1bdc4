package services

import (
	"context"

	"github.com/flowgate/backend/internal/infrastructure/persistence"
	"github.com/flowgate/backend/pkg/auth"
	appErrors "github.com/flowgate/backend/pkg/errors"
)

// AuthService is the thin authentication boundary: it verifies credentials
// and issues tokens. Identity provisioning itself lives outside this engine.
type AuthService struct {
	users *persistence.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// LoginResult carries the issued token and the session it encodes
type LoginResult struct {
	Token   string           `json:"token"`
	Session auth.UserSession `json:"user"`
}

// Login verifies credentials and issues a JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !auth.IsValidEmail(email) {
		return nil, appErrors.NewValidationError("email", "invalid email address")
	}

	user, err := s.users.FindUserByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to look up user", err)
	}
	if user == nil || !user.IsActive || !auth.VerifyPassword(password, user.PasswordHash) {
		// Same answer for unknown user and wrong password.
		return nil, appErrors.NewUnauthorizedError("invalid credentials")
	}

	session := auth.UserSession{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if user.RoleID != nil {
		session.RoleID = *user.RoleID
		role, err := s.users.GetRoleByID(ctx, *user.RoleID)
		if err != nil {
			return nil, appErrors.NewInternalError("failed to look up role", err)
		}
		if role != nil {
			session.RoleName = role.Name
		}
	}

	token, err := auth.GenerateToken(session)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to issue token", err)
	}

	return &LoginResult{Token: token, Session: session}, nil
}

// ValidateSession validates a bearer token and returns its claims
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, appErrors.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}
