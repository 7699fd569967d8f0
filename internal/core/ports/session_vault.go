package ports

import (
	"context"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// SessionVault persists the session between process runs. The store writes
// after every mutation and reads once at startup.
//
// Load returns (nil, nil) when no usable record exists: missing, corrupt,
// and schema-mismatched records all count as absent so rehydration fails
// open to the unauthenticated state. A non-nil error means the medium itself
// was unreachable.
//
// Save fully replaces the persisted record or leaves the previous one
// intact; partial writes are never visible.
type SessionVault interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}
