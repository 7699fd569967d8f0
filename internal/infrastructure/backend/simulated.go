// Package backend provides the two ports.Backend implementations: a local
// simulation used in development and a network-backed client for the real
// auth service. The caller picks one at construction time from configuration.
package backend

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

const (
	resetTokenTTL       = time.Hour
	verificationCodeTTL = 15 * time.Minute
)

const (
	msgRegistered   = "Registration successful. Please check your email for verification."
	msgResetRequest = "Password reset link sent to your email."
	msgResetDone    = "Password has been reset."
	msgVerified     = "Email verified successfully"
	msgCodeResent   = "Verification code sent successfully."
)

// SimulatedOptions configures the local simulation.
type SimulatedOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Latency is an artificial delay applied to every operation so the
	// console behaves like it would against a remote service.
	Latency time.Duration
}

// Simulated is the local stand-in for the real auth backend. Accounts live
// in a UserDirectory; tokens are HS256 JWTs; reset tokens and verification
// codes are held in memory with a TTL.
type Simulated struct {
	dir    ports.UserDirectory
	secret []byte
	ttl    time.Duration
	delay  time.Duration
	log    zerolog.Logger

	mu          sync.Mutex
	resetTokens map[string]pendingReset
	codes       map[string]pendingCode
}

type pendingReset struct {
	email     string
	expiresAt time.Time
}

type pendingCode struct {
	code      string
	expiresAt time.Time
}

func NewSimulated(dir ports.UserDirectory, opts SimulatedOptions, log zerolog.Logger) *Simulated {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Simulated{
		dir:         dir,
		secret:      []byte(opts.JWTSecret),
		ttl:         ttl,
		delay:       opts.Latency,
		log:         log,
		resetTokens: make(map[string]pendingReset),
		codes:       make(map[string]pendingCode),
	}
}

func (s *Simulated) Login(ctx context.Context, creds ports.Credentials) (*ports.LoginResult, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	user, err := s.dir.FindByEmail(ctx, creds.Email)
	if err != nil {
		// Unknown account and bad password collapse into the same answer.
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(creds.Secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	return &ports.LoginResult{
		User: &domain.User{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Token:       token,
		Permissions: user.Permissions,
	}, nil
}

// Register creates an unverified account and issues a verification code. A
// duplicate email gets the same acceptance message as a fresh one so the
// response cannot confirm account existence.
func (s *Simulated) Register(ctx context.Context, profile ports.RegisterProfile) (string, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	_, err = s.dir.Create(ctx, &ports.DirectoryUser{
		ID:         uuid.NewString(),
		Name:       profile.Name,
		Email:      profile.Email,
		Role:       profile.Role,
		SecretHash: string(hash),
	})
	if err == domain.ErrUserExists {
		s.log.Debug().Msg("registration for existing account, answering generically")
		return msgRegistered, nil
	}
	if err != nil {
		return "", err
	}

	s.issueCode(profile.Email)
	return msgRegistered, nil
}

func (s *Simulated) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return "", err
	}

	if _, err := s.dir.FindByEmail(ctx, email); err != nil {
		// Same acceptance either way.
		return msgResetRequest, nil
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.resetTokens[token] = pendingReset{email: email, expiresAt: time.Now().Add(resetTokenTTL)}
	s.mu.Unlock()

	// A real backend emails the token; the simulation logs it instead.
	s.log.Info().Str("reset_token", token).Msg("password reset token issued")
	return msgResetRequest, nil
}

func (s *Simulated) ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) (string, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	pending, ok := s.resetTokens[resetToken]
	if ok {
		delete(s.resetTokens, resetToken)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(pending.expiresAt) {
		return "", domain.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	if err := s.dir.UpdateSecret(ctx, pending.email, string(hash)); err != nil {
		return "", domain.ErrInvalidToken
	}
	return msgResetDone, nil
}

// VerifyEmail is idempotent: a verified account answers success for any code.
func (s *Simulated) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return "", err
	}

	user, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		return "", domain.ErrInvalidCode
	}
	if user.Verified {
		return msgVerified, nil
	}

	s.mu.Lock()
	pending, ok := s.codes[email]
	s.mu.Unlock()

	if !ok || pending.code != code || time.Now().After(pending.expiresAt) {
		return "", domain.ErrInvalidCode
	}

	if err := s.dir.SetVerified(ctx, email); err != nil {
		return "", domain.ErrInvalidCode
	}
	s.mu.Lock()
	delete(s.codes, email)
	s.mu.Unlock()
	return msgVerified, nil
}

func (s *Simulated) ResendVerification(ctx context.Context, email string) (string, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return "", err
	}

	if _, err := s.dir.FindByEmail(ctx, email); err == nil {
		s.issueCode(email)
	}
	return msgCodeResent, nil
}

func (s *Simulated) Logout(ctx context.Context, _ string) error {
	return s.simulateLatency(ctx)
}

func (s *Simulated) mintToken(user *ports.DirectoryUser) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Simulated) issueCode(email string) {
	code := randomCode()
	s.mu.Lock()
	s.codes[email] = pendingCode{code: code, expiresAt: time.Now().Add(verificationCodeTTL)}
	s.mu.Unlock()

	// Stands in for the verification email.
	s.log.Info().Str("code", code).Msg("verification code issued")
}

// randomCode produces a six-digit one-time code.
func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform's entropy source is broken
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func (s *Simulated) simulateLatency(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}
