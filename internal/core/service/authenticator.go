package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

const defaultMinSecretLen = 6

// Authenticator turns credentials into sessions. It validates request shape
// before any I/O, delegates to the configured backend, and computes the
// effective permission set as the union of the role's catalog group and any
// explicit per-user grants.
type Authenticator struct {
	backend      ports.Backend
	minSecretLen int
	log          zerolog.Logger
}

func NewAuthenticator(backend ports.Backend, minSecretLen int, log zerolog.Logger) *Authenticator {
	if minSecretLen <= 0 {
		minSecretLen = defaultMinSecretLen
	}
	return &Authenticator{backend: backend, minSecretLen: minSecretLen, log: log}
}

// Login authenticates the credentials and builds a complete Session.
// Malformed input fails fast with ErrInvalidInput before any backend call.
// Rejected credentials surface as ErrInvalidCredentials without revealing
// which field was wrong.
func (a *Authenticator) Login(ctx context.Context, creds ports.Credentials) (domain.Session, error) {
	if strings.TrimSpace(creds.Email) == "" {
		return domain.Unauthenticated(), fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if len(creds.Secret) < a.minSecretLen {
		return domain.Unauthenticated(), fmt.Errorf("%w: password too short", domain.ErrInvalidInput)
	}

	res, err := a.backend.Login(ctx, creds)
	if err != nil {
		return domain.Unauthenticated(), err
	}
	if res.User == nil || res.Token == "" || !res.User.Role.Valid() {
		return domain.Unauthenticated(), &domain.TransportError{Op: "login", Msg: "incomplete login payload"}
	}

	return domain.Session{
		User:          res.User,
		Token:         res.Token,
		Role:          res.User.Role,
		Permissions:   unionPermissions(domain.PermissionsFor(res.User.Role), res.Permissions),
		Authenticated: true,
	}, nil
}

// Register submits a registration request. It never creates an authenticated
// session; verification is interposed between registration and first login.
func (a *Authenticator) Register(ctx context.Context, profile ports.RegisterProfile) (string, error) {
	if strings.TrimSpace(profile.Name) == "" || strings.TrimSpace(profile.Email) == "" {
		return "", fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if len(profile.Secret) < a.minSecretLen {
		return "", fmt.Errorf("%w: password too short", domain.ErrInvalidInput)
	}
	if !profile.Role.Valid() {
		return "", fmt.Errorf("%w: unknown role", domain.ErrInvalidInput)
	}
	return a.backend.Register(ctx, profile)
}

// RequestPasswordReset accepts the request whether or not the account exists,
// so the response can never be used to probe for accounts.
func (a *Authenticator) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	msg, err := a.backend.RequestPasswordReset(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "Password reset link sent to your email.", nil
	}
	return msg, err
}

// ConfirmPasswordReset exchanges a reset token for a new secret.
func (a *Authenticator) ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) (string, error) {
	if strings.TrimSpace(resetToken) == "" {
		return "", fmt.Errorf("%w: reset token is required", domain.ErrInvalidInput)
	}
	if len(newSecret) < a.minSecretLen {
		return "", fmt.Errorf("%w: password too short", domain.ErrInvalidInput)
	}
	return a.backend.ConfirmPasswordReset(ctx, resetToken, newSecret)
}

// VerifyEmail checks an issued one-time code. Verification is idempotent:
// verifying an already-verified account succeeds without side effects.
func (a *Authenticator) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: email and code are required", domain.ErrInvalidInput)
	}
	return a.backend.VerifyEmail(ctx, email, code)
}

// ResendVerification issues a fresh verification code. Like reset requests,
// the answer is accepted regardless of account existence.
func (a *Authenticator) ResendVerification(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	msg, err := a.backend.ResendVerification(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "Verification code sent successfully.", nil
	}
	return msg, err
}

// Logout notifies the backend that the token is done. Callers treat failures
// as advisory; local state is authoritative.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.backend.Logout(ctx, token)
}

// unionPermissions merges the catalog group with explicit grants, preserving
// order and dropping duplicates.
func unionPermissions(group, explicit []domain.Permission) []domain.Permission {
	seen := make(map[domain.Permission]struct{}, len(group)+len(explicit))
	out := make([]domain.Permission, 0, len(group)+len(explicit))
	for _, set := range [][]domain.Permission{group, explicit} {
		for _, p := range set {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
