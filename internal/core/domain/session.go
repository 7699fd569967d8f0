package domain

// Session is the authenticated-or-not runtime record describing the current
// operator.
//
// Invariants:
//   - Authenticated == true iff User != nil and Token != "".
//   - When Authenticated == false, Permissions is empty and Role is "".
type Session struct {
	User          *User        `json:"user"`
	Token         string       `json:"token"`
	Role          Role         `json:"role"`
	Permissions   []Permission `json:"permissions"`
	Authenticated bool         `json:"authenticated"`
}

// Unauthenticated returns the empty session every process starts from and
// every logout returns to.
func Unauthenticated() Session {
	return Session{Permissions: []Permission{}}
}

// Valid reports whether the session satisfies its own invariants. Persisted
// records that fail this check are treated as absent.
func (s Session) Valid() bool {
	if s.Authenticated {
		return s.User != nil && s.Token != "" && s.Role.Valid()
	}
	return s.User == nil && s.Token == "" && s.Role == "" && len(s.Permissions) == 0
}

// HasPermission reports whether the session holds the given capability tag.
// Always false for an unauthenticated session.
func (s Session) HasPermission(p Permission) bool {
	if !s.Authenticated {
		return false
	}
	for _, held := range s.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// HasRole reports whether the session's role is exactly r. Always false for
// an unauthenticated session.
func (s Session) HasRole(r Role) bool {
	return s.Authenticated && s.Role == r
}

// Clone returns a deep copy so readers can never reach the store's own state.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Permissions = make([]Permission, len(s.Permissions))
	copy(out.Permissions, s.Permissions)
	return out
}
