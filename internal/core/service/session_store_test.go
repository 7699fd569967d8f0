package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

// memoryVault is an in-memory SessionVault for tests.
type memoryVault struct {
	mu      sync.Mutex
	record  *domain.Session
	loadErr error
	saves   int
	clears  int
}

func (v *memoryVault) Load(context.Context) (*domain.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loadErr != nil {
		return nil, v.loadErr
	}
	if v.record == nil {
		return nil, nil
	}
	clone := v.record.Clone()
	return &clone, nil
}

func (v *memoryVault) Save(_ context.Context, session domain.Session) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	clone := session.Clone()
	v.record = &clone
	v.saves++
	return nil
}

func (v *memoryVault) Clear(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record = nil
	v.clears++
	return nil
}

func newTestStore(backend ports.Backend, vault ports.SessionVault) *SessionStore {
	auth := NewAuthenticator(backend, 0, zerolog.Nop())
	return NewSessionStore(auth, vault, zerolog.Nop())
}

func loginDoctor(t *testing.T, store *SessionStore) domain.Session {
	t.Helper()
	session, err := store.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"}, true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return session
}

func TestSessionStore_LoginPersistsSession(t *testing.T) {
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
	}, vault)

	session := loginDoctor(t, store)

	if !store.Authenticated() {
		t.Fatalf("store not authenticated after login")
	}
	if !store.HasRole(domain.RoleDoctor) || !store.HasPermission("prescribe_medication") {
		t.Fatalf("derived queries wrong after login: %+v", session)
	}
	if vault.record == nil || vault.record.User.ID != "2" {
		t.Fatalf("session not persisted: %+v", vault.record)
	}
}

func TestSessionStore_FailedLoginLeavesSessionUntouched(t *testing.T) {
	fail := false
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			if fail {
				return nil, domain.ErrInvalidCredentials
			}
			return doctorLoginResult(), nil
		},
	}, vault)

	before := loginDoctor(t, store)

	fail = true
	_, err := store.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "wrongpass"}, true)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	after := store.Snapshot()
	if !after.Authenticated || after.User.ID != before.User.ID || after.Token != before.Token {
		t.Fatalf("failed login mutated the session: %+v", after)
	}
	if after.Role != before.Role || len(after.Permissions) != len(before.Permissions) {
		t.Fatalf("failed login partially overwrote role/permissions: %+v", after)
	}
	if vault.record == nil {
		t.Fatalf("failed login must not clear the persisted session")
	}
}

func TestSessionStore_NewLoginReplacesNotMerges(t *testing.T) {
	results := map[string]*ports.LoginResult{
		"doctor@example.com": doctorLoginResult(),
		"nurse@example.com": {
			User:  &domain.User{ID: "3", Name: "Nurse User", Email: "nurse@example.com", Role: domain.RoleNurse},
			Token: "token-nurse",
		},
	}
	store := newTestStore(&stubBackend{
		loginFn: func(_ context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
			return results[creds.Email], nil
		},
	}, &memoryVault{})

	loginDoctor(t, store)
	if _, err := store.Login(context.Background(), ports.Credentials{Email: "nurse@example.com", Secret: "nurse123"}, true); err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	session := store.Snapshot()
	if session.Role != domain.RoleNurse {
		t.Fatalf("expected nurse session, got %s", session.Role)
	}
	if session.HasPermission("prescribe_medication") {
		t.Fatalf("doctor permission leaked into the replacing session")
	}
}

func TestSessionStore_LogoutClearsEverything(t *testing.T) {
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
	}, vault)

	loginDoctor(t, store)
	store.Logout(context.Background())

	if store.Authenticated() {
		t.Fatalf("store still authenticated after logout")
	}
	if store.HasPermission("prescribe_medication") || store.HasRole(domain.RoleDoctor) {
		t.Fatalf("derived queries must be false after logout")
	}
	if vault.record != nil {
		t.Fatalf("persisted session must be cleared on logout")
	}
}

func TestSessionStore_LogoutSucceedsWhenRemoteFails(t *testing.T) {
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
		logoutFn: func(context.Context, string) error {
			return &domain.TransportError{Op: "logout", Msg: "backend unreachable"}
		},
	}, &memoryVault{})

	loginDoctor(t, store)
	store.Logout(context.Background())

	if store.Authenticated() {
		t.Fatalf("local session must clear even when remote logout fails")
	}
}

func TestSessionStore_RehydrateRoundTrip(t *testing.T) {
	vault := &memoryVault{}
	first := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
	}, vault)
	before := loginDoctor(t, first)

	// fresh store, same vault: simulates a process restart
	second := newTestStore(&stubBackend{}, vault)
	if !second.Rehydrate(context.Background()) {
		t.Fatalf("expected rehydration from persisted record")
	}

	after := second.Snapshot()
	if after.User.ID != before.User.ID || after.Role != before.Role || after.Authenticated != before.Authenticated {
		t.Fatalf("rehydrated session differs: %+v vs %+v", after, before)
	}
	if len(after.Permissions) != len(before.Permissions) {
		t.Fatalf("rehydrated permission set differs: %v vs %v", after.Permissions, before.Permissions)
	}
}

func TestSessionStore_RehydrateInvalidRecord(t *testing.T) {
	// authenticated flag set but no token: violates the session invariant
	broken := domain.Session{
		User:          &domain.User{ID: "1", Role: domain.RoleAdmin},
		Role:          domain.RoleAdmin,
		Authenticated: true,
	}
	vault := &memoryVault{record: &broken}
	store := newTestStore(&stubBackend{}, vault)

	if store.Rehydrate(context.Background()) {
		t.Fatalf("invalid record must not rehydrate")
	}
	if store.Authenticated() {
		t.Fatalf("store must stay unauthenticated after invalid record")
	}
	if vault.record != nil {
		t.Fatalf("invalid record should be cleared from the vault")
	}
}

func TestSessionStore_RehydrateVaultUnreachable(t *testing.T) {
	vault := &memoryVault{loadErr: errors.New("connection refused")}
	store := newTestStore(&stubBackend{}, vault)

	if store.Rehydrate(context.Background()) {
		t.Fatalf("unreachable vault must not rehydrate")
	}
	if store.Authenticated() {
		t.Fatalf("store must fail open to unauthenticated")
	}
}

func TestSessionStore_RememberFalseNotPersisted(t *testing.T) {
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
	}, vault)

	if _, err := store.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"}, false); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if !store.Authenticated() {
		t.Fatalf("in-memory session should still be live")
	}
	if vault.record != nil {
		t.Fatalf("remember=false session must not be persisted")
	}
}

func TestSessionStore_SupersededLoginDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(_ context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
			if creds.Email == "doctor@example.com" {
				close(started)
				<-release // slow response, completes after the nurse login
				return doctorLoginResult(), nil
			}
			return &ports.LoginResult{
				User:  &domain.User{ID: "3", Name: "Nurse User", Email: "nurse@example.com", Role: domain.RoleNurse},
				Token: "token-nurse",
			}, nil
		},
	}, vault)

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"}, true)
		done <- err
	}()
	<-started

	// Second attempt is issued while the first is still in flight and wins.
	if _, err := store.Login(context.Background(), ports.Credentials{Email: "nurse@example.com", Secret: "nurse123"}, true); err != nil {
		t.Fatalf("newer login failed: %v", err)
	}

	close(release)
	if err := <-done; !errors.Is(err, domain.ErrLoginSuperseded) {
		t.Fatalf("expected ErrLoginSuperseded for the stale login, got %v", err)
	}

	if got := store.Snapshot().Role; got != domain.RoleNurse {
		t.Fatalf("stale login overwrote the newer session: role=%s", got)
	}
}

func TestSessionStore_ExpireClearsProactively(t *testing.T) {
	vault := &memoryVault{}
	store := newTestStore(&stubBackend{
		loginFn: func(context.Context, ports.Credentials) (*ports.LoginResult, error) {
			return doctorLoginResult(), nil
		},
	}, vault)

	loginDoctor(t, store)
	store.Expire(context.Background())

	if store.Authenticated() {
		t.Fatalf("expire must clear the session")
	}
	if vault.record != nil {
		t.Fatalf("expire must clear the persisted record")
	}
}
