package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

// SessionStore is the single authoritative holder of the current Session.
// Its own methods are the only writer; everything else reads through
// Snapshot, HasPermission, and HasRole. The session is persisted to the
// vault after every mutation and rehydrated once at startup.
type SessionStore struct {
	auth  *Authenticator
	vault ports.SessionVault
	log   zerolog.Logger

	mu       sync.RWMutex
	session  domain.Session
	loginGen uint64
	remember bool
}

func NewSessionStore(auth *Authenticator, vault ports.SessionVault, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		auth:     auth,
		vault:    vault,
		log:      log,
		session:  domain.Unauthenticated(),
		remember: true,
	}
}

// Rehydrate loads the persisted session, if any, and must run before the
// first Guard decision. Missing, corrupt, or invariant-violating records
// leave the store unauthenticated; nothing here ever fails the caller.
// It reports whether a persisted session was restored.
func (s *SessionStore) Rehydrate(ctx context.Context) bool {
	rec, err := s.vault.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session vault unreachable, starting unauthenticated")
		return false
	}
	if rec == nil {
		return false
	}
	if !rec.Valid() || !rec.Authenticated {
		s.log.Warn().Msg("persisted session failed validation, treating as absent")
		if err := s.vault.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("clearing invalid session record")
		}
		return false
	}

	s.mu.Lock()
	s.session = rec.Clone()
	s.mu.Unlock()

	s.log.Info().
		Str("user_id", rec.User.ID).
		Str("role", string(rec.Role)).
		Msg("session rehydrated")
	return true
}

// Login authenticates and, on success, atomically replaces the session and
// persists it. On failure the prior session is left untouched and the error
// is surfaced unchanged.
//
// Each attempt takes a generation number before the backend call; a result
// whose generation has been superseded by a newer attempt is discarded with
// ErrLoginSuperseded, so a slow stale response can never overwrite a newer
// login. With remember=false the session stays in memory only and a restart
// rehydrates to unauthenticated.
func (s *SessionStore) Login(ctx context.Context, creds ports.Credentials, remember bool) (domain.Session, error) {
	s.mu.Lock()
	s.loginGen++
	gen := s.loginGen
	s.mu.Unlock()

	session, err := s.auth.Login(ctx, creds)
	if err != nil {
		return domain.Unauthenticated(), err
	}

	s.mu.Lock()
	if gen != s.loginGen {
		s.mu.Unlock()
		return domain.Unauthenticated(), domain.ErrLoginSuperseded
	}
	s.session = session
	s.remember = remember
	s.mu.Unlock()

	s.persist(ctx)
	return session.Clone(), nil
}

// Logout clears the session locally and persists the cleared state. The
// backend is notified best-effort: a failed remote logout is logged, never
// retried, and never blocks the local transition.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.session.Token
	s.session = domain.Unauthenticated()
	s.remember = true
	s.mu.Unlock()

	if token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.log.Warn().Err(err).Msg("remote logout failed, local session cleared anyway")
		}
	}
	s.persist(ctx)
}

// Expire clears the session without a remote call. It is invoked when any
// authenticated backend call comes back 401-equivalent: a stale session with
// a dead token must never read as allowed in the Guard.
func (s *SessionStore) Expire(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.session.Authenticated
	s.session = domain.Unauthenticated()
	s.remember = true
	s.mu.Unlock()

	if wasAuthenticated {
		s.log.Info().Msg("session expired by backend, cleared locally")
	}
	s.persist(ctx)
}

// HasPermission reports membership in the current permission set; false when
// unauthenticated.
func (s *SessionStore) HasPermission(p domain.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.HasPermission(p)
}

// HasRole reports exact equality with the current role; false when
// unauthenticated.
func (s *SessionStore) HasRole(r domain.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.HasRole(r)
}

// Authenticated reports whether a session is currently established.
func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated
}

// Snapshot returns a deep copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// persist writes the current state to the vault. Sessions established with
// remember=false are not written; the vault is cleared instead so nothing
// survives a restart. Vault failures are recovered locally, not re-raised.
func (s *SessionStore) persist(ctx context.Context) {
	s.mu.RLock()
	session := s.session.Clone()
	remember := s.remember
	s.mu.RUnlock()

	var err error
	if session.Authenticated && remember {
		err = s.vault.Save(ctx, session)
	} else {
		err = s.vault.Clear(ctx)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("persisting session state")
	}
}
