package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

func TestHTTPBackend_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if body["email"] != "doctor@example.com" || body["password"] != "doctor123" {
			t.Fatalf("unexpected credentials: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":        map[string]string{"id": "2", "name": "Doctor User", "email": "doctor@example.com", "role": "doctor"},
			"token":       "remote-token",
			"permissions": []string{"extra_grant"},
		})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, srv.Client(), zerolog.Nop())
	res, err := b.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.Role != domain.RoleDoctor || res.Token != "remote-token" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Permissions) != 1 || res.Permissions[0] != "extra_grant" {
		t.Fatalf("explicit permissions lost: %v", res.Permissions)
	}
}

func TestHTTPBackend_Login_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, srv.Client(), zerolog.Nop())
	_, err := b.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "wrongpass"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHTTPBackend_Logout_401MeansExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stale-token" {
			t.Fatalf("missing bearer credential: %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, srv.Client(), zerolog.Nop())
	err := b.Logout(context.Background(), "stale-token")
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired on authenticated 401, got %v", err)
	}
}

func TestHTTPBackend_ResetConfirm_RejectionMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, srv.Client(), zerolog.Nop())
	_, err := b.ConfirmPasswordReset(context.Background(), "expired-token", "newpass99")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHTTPBackend_ServerError_WrapsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "upstream database down"})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, srv.Client(), zerolog.Nop())
	_, err := b.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Status != http.StatusBadGateway || te.Msg != "upstream database down" {
		t.Fatalf("backend message not carried: %+v", te)
	}
}

func TestHTTPBackend_Unreachable(t *testing.T) {
	b := NewHTTPBackend("http://127.0.0.1:1", nil, zerolog.Nop())
	_, err := b.Login(context.Background(), ports.Credentials{Email: "doctor@example.com", Secret: "doctor123"})

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError for unreachable backend, got %v", err)
	}
}
