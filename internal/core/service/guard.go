package service

import (
	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// AccessRule is the declarative descriptor a route owner attaches to a
// protected target. Roles are any-of, Permissions are all-of. An empty rule
// requires authentication and nothing more.
type AccessRule struct {
	Roles       []domain.Role
	Permissions []domain.Permission
}

// Guard decides whether a navigation target is permitted given the current
// session. It is the only component that evaluates access rules, so the
// authorization policy has one source of truth.
type Guard struct {
	store *SessionStore
	log   zerolog.Logger
}

func NewGuard(store *SessionStore, log zerolog.Logger) *Guard {
	return &Guard{store: store, log: log}
}

// CanAccess evaluates the rule against the current session, short-circuiting
// in a fixed order:
//
//  1. unauthenticated: ErrNotAuthenticated
//  2. role not in Roles: ErrForbidden
//  3. any Permission missing: ErrForbidden
//  4. otherwise: nil
//
// The ordering keeps the two denial reasons distinguishable: unauthenticated
// callers are routed to a login prompt, forbidden ones to a denial page.
func (g *Guard) CanAccess(target string, rule AccessRule) error {
	session := g.store.Snapshot()

	if !session.Authenticated {
		g.log.Debug().Str("target", target).Msg("guard: not authenticated")
		return domain.ErrNotAuthenticated
	}

	if len(rule.Roles) > 0 {
		allowed := false
		for _, r := range rule.Roles {
			if session.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			g.log.Debug().
				Str("target", target).
				Str("role", string(session.Role)).
				Msg("guard: role not permitted")
			return domain.ErrForbidden
		}
	}

	for _, p := range rule.Permissions {
		if !session.HasPermission(p) {
			g.log.Debug().
				Str("target", target).
				Str("permission", string(p)).
				Msg("guard: permission missing")
			return domain.ErrForbidden
		}
	}

	return nil
}
