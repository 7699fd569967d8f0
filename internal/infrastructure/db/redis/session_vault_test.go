package redis

import (
	"testing"

	"github.com/aiemr/emr-console/internal/core/domain"
)

func authenticatedSession() domain.Session {
	return domain.Session{
		User:          &domain.User{ID: "2", Name: "Doctor User", Email: "doctor@example.com", Role: domain.RoleDoctor},
		Token:         "token-doctor",
		Role:          domain.RoleDoctor,
		Permissions:   domain.PermissionsFor(domain.RoleDoctor),
		Authenticated: true,
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	before := authenticatedSession()

	raw, err := encodeRecord(before)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	after, ok := decodeRecord(raw)
	if !ok {
		t.Fatalf("decode rejected a freshly encoded record")
	}
	if after.User.ID != before.User.ID || after.Role != before.Role || !after.Authenticated {
		t.Fatalf("round trip changed the session: %+v", after)
	}
	if len(after.Permissions) != len(before.Permissions) {
		t.Fatalf("permission set changed: %v vs %v", after.Permissions, before.Permissions)
	}
}

func TestRecord_CorruptPayloadTreatedAsAbsent(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":      []byte("{not-json"),
		"empty":         []byte(""),
		"wrong type":    []byte(`"a string"`),
		"missing token": []byte(`{"v":1,"user":{"id":"1","role":"admin"},"role":"admin","authenticated":true}`),
	} {
		if _, ok := decodeRecord(raw); ok {
			t.Fatalf("%s: corrupt record must decode as absent", name)
		}
	}
}

func TestRecord_SchemaVersionMismatchTreatedAsAbsent(t *testing.T) {
	raw, err := encodeRecord(authenticatedSession())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// rewrite the version field the way a future release would
	tampered := []byte(`{"v":2,` + string(raw[len(`{"v":1,`):]))
	if _, ok := decodeRecord(tampered); ok {
		t.Fatalf("record from another schema version must decode as absent")
	}
}

func TestRecord_InvariantViolationTreatedAsAbsent(t *testing.T) {
	// authenticated without a token violates the session invariant
	broken := authenticatedSession()
	broken.Token = ""

	raw, err := encodeRecord(broken)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, ok := decodeRecord(raw); ok {
		t.Fatalf("invariant-violating record must decode as absent")
	}
}
