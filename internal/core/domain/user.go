package domain

// User is the identity record issued by the authenticator. It is immutable
// for the lifetime of a session and replaced wholesale on the next login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
