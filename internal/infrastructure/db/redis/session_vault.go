package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aiemr/emr-console/internal/core/domain"
)

// sessionKey is the single namespaced slot the console persists its session
// under.
const sessionKey = "emrconsole:session"

// recordVersion guards the persisted schema. A record written by a different
// release reads back as absent instead of crashing rehydration.
const recordVersion = 1

type sessionRecord struct {
	Version       int                 `json:"v"`
	User          *domain.User        `json:"user"`
	Token         string              `json:"token"`
	Role          domain.Role         `json:"role"`
	Permissions   []domain.Permission `json:"permissions"`
	Authenticated bool                `json:"authenticated"`
}

// SessionVault is the Redis-backed durable store for the console session.
// Each write fully replaces the record; each read validates version and
// session invariants before handing anything back.
type SessionVault struct {
	client *redis.Client
}

func NewSessionVault(client *redis.Client) *SessionVault {
	return &SessionVault{client: client}
}

// Load returns the persisted session, or (nil, nil) when the slot is empty
// or holds anything unusable. Only a transport-level failure is an error.
func (v *SessionVault) Load(ctx context.Context) (*domain.Session, error) {
	raw, err := v.client.Get(ctx, sessionKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	session, ok := decodeRecord(raw)
	if !ok {
		return nil, nil
	}
	return session, nil
}

func (v *SessionVault) Save(ctx context.Context, session domain.Session) error {
	raw, err := encodeRecord(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := v.client.Set(ctx, sessionKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (v *SessionVault) Clear(ctx context.Context) error {
	if err := v.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func encodeRecord(session domain.Session) ([]byte, error) {
	return json.Marshal(sessionRecord{
		Version:       recordVersion,
		User:          session.User,
		Token:         session.Token,
		Role:          session.Role,
		Permissions:   session.Permissions,
		Authenticated: session.Authenticated,
	})
}

// decodeRecord parses a persisted record. The bool result is false for any
// record a current release should not trust: malformed JSON, a different
// schema version, or a session violating its own invariants.
func decodeRecord(raw []byte) (*domain.Session, bool) {
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	if rec.Version != recordVersion {
		return nil, false
	}

	session := domain.Session{
		User:          rec.User,
		Token:         rec.Token,
		Role:          rec.Role,
		Permissions:   rec.Permissions,
		Authenticated: rec.Authenticated,
	}
	if session.Permissions == nil {
		session.Permissions = []domain.Permission{}
	}
	if !session.Valid() {
		return nil, false
	}
	return &session, true
}
