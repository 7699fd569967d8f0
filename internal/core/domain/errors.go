package domain

import (
	"errors"
	"fmt"
)

// Expected rejections are sentinel errors so callers can branch with
// errors.Is and the HTTP layer can map them to deterministic status codes.
// Messages are short and user-facing; none of them names the field that was
// wrong or confirms whether an account exists.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired reset token")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionExpired     = errors.New("session expired")
	ErrLoginSuperseded    = errors.New("login superseded by a newer attempt")
)

// Directory-level errors. These never cross the HTTP boundary directly: the
// backend translates them so responses cannot leak account existence.
var (
	ErrUserNotFound = errors.New("account not found")
	ErrUserExists   = errors.New("account already exists")
)

// TransportError reports that the auth backend was unreachable or answered
// outside its contract. It carries the backend's message when one was given
// and never contains the raw credential.
type TransportError struct {
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("auth backend %s: %s", e.Op, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("auth backend %s: status %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }
