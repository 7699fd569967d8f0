package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPBackend speaks the console's auth contract against a real backend.
// Expected rejections map to the domain sentinels; anything else becomes a
// TransportError. A 401 on an authenticated call (anything carrying a token)
// maps to ErrSessionExpired so the store can clear itself proactively.
type HTTPBackend struct {
	base   string
	client *http.Client
	log    zerolog.Logger
}

func NewHTTPBackend(baseURL string, client *http.Client, log zerolog.Logger) *HTTPBackend {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPBackend{base: strings.TrimRight(baseURL, "/"), client: client, log: log}
}

type loginPayload struct {
	User        *domain.User        `json:"user"`
	Token       string              `json:"token"`
	Permissions []domain.Permission `json:"permissions"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func (b *HTTPBackend) Login(ctx context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Secret}

	var payload loginPayload
	if err := b.post(ctx, "login", "/auth/login", "", body, &payload); err != nil {
		return nil, err
	}
	return &ports.LoginResult{User: payload.User, Token: payload.Token, Permissions: payload.Permissions}, nil
}

func (b *HTTPBackend) Register(ctx context.Context, profile ports.RegisterProfile) (string, error) {
	body := map[string]string{
		"name":     profile.Name,
		"email":    profile.Email,
		"password": profile.Secret,
		"role":     string(profile.Role),
	}
	return b.postMessage(ctx, "register", "/auth/register", body)
}

func (b *HTTPBackend) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return b.postMessage(ctx, "forgot-password", "/auth/forgot-password", map[string]string{"email": email})
}

func (b *HTTPBackend) ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) (string, error) {
	body := map[string]string{"token": resetToken, "password": newSecret}
	return b.postMessage(ctx, "reset-password", "/auth/reset-password", body)
}

func (b *HTTPBackend) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{"email": email, "otp": code}
	return b.postMessage(ctx, "verify-email", "/auth/verify-email", body)
}

func (b *HTTPBackend) ResendVerification(ctx context.Context, email string) (string, error) {
	return b.postMessage(ctx, "resend-verification", "/auth/resend-verification", map[string]string{"email": email})
}

func (b *HTTPBackend) Logout(ctx context.Context, token string) error {
	var payload messagePayload
	return b.post(ctx, "logout", "/auth/logout", token, map[string]string{}, &payload)
}

func (b *HTTPBackend) postMessage(ctx context.Context, op, path string, body any) (string, error) {
	var payload messagePayload
	if err := b.post(ctx, op, path, "", body, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// post issues the request and decodes either the success payload or the
// backend's error envelope. token, when set, is sent as a bearer credential
// and marks the call as authenticated for 401 handling.
func (b *HTTPBackend) post(ctx context.Context, op, path, token string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Msg: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			return &domain.TransportError{Op: op, Status: resp.StatusCode, Msg: "malformed response body", Err: err}
		}
		return nil
	}

	return b.mapFailure(op, token != "", resp.StatusCode, data)
}

func (b *HTTPBackend) mapFailure(op string, authenticated bool, status int, body []byte) error {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	msg := envelope.Message
	if msg == "" {
		msg = envelope.Error
	}

	if status == http.StatusUnauthorized {
		if authenticated {
			return domain.ErrSessionExpired
		}
		return domain.ErrInvalidCredentials
	}

	switch op {
	case "reset-password":
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			return domain.ErrInvalidToken
		}
	case "verify-email":
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			return domain.ErrInvalidCode
		}
	}

	b.log.Warn().Int("status", status).Str("op", op).Msg("auth backend rejected request")
	return &domain.TransportError{Op: op, Status: status, Msg: msg}
}
