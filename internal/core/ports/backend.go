package ports

import (
	"context"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// Credentials carries a login attempt. Secret is never logged or echoed back.
type Credentials struct {
	Email  string
	Secret string
}

// RegisterProfile carries a registration request. Registration never yields
// an authenticated session; verification happens out of band.
type RegisterProfile struct {
	Name   string
	Email  string
	Secret string
	Role   domain.Role
}

// LoginResult is the backend's success payload for a login. Permissions are
// the per-user grants on top of the role's catalog group; the authenticator
// computes the union.
type LoginResult struct {
	User        *domain.User
	Token       string
	Permissions []domain.Permission
}

// Backend is the auth collaborator behind the Authenticator. Two
// implementations exist: a local simulation and a network-backed client.
// Which one is in play is decided at construction time, never by a flag
// inside business logic.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Register(ctx context.Context, profile RegisterProfile) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	Logout(ctx context.Context, token string) error
}
