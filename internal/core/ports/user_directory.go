package ports

import (
	"context"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// DirectoryUser is an account record as the simulated backend's directory
// stores it. Permissions are explicit per-user grants beyond the role's
// catalog group.
type DirectoryUser struct {
	ID          string
	Name        string
	Email       string
	SecretHash  string
	Role        domain.Role
	Permissions []domain.Permission
	Verified    bool
}

// UserDirectory is the account storage behind the simulated backend.
// Lookups return domain.ErrUserNotFound; Create returns domain.ErrUserExists
// on a duplicate email.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*DirectoryUser, error)
	Create(ctx context.Context, user *DirectoryUser) (*DirectoryUser, error)
	SetVerified(ctx context.Context, email string) error
	UpdateSecret(ctx context.Context, email, secretHash string) error
}
