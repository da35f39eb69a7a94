package models

// Role constants. Guest is a pseudo-role granted without a stored credential.
const (
	RoleAdmin   = "Admin"
	RoleTeacher = "Teacher"
	RoleGuest   = "Guest"
)

// Credential is one stored username/password/role row. Passwords are stored
// in plaintext, matching the system this replaces; a known weakness kept on
// purpose rather than silently hardened.
type Credential struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
	Role     string `db:"role" json:"role"`
}

// Session identifies the authenticated user for one login lifetime. It is
// in-memory only and passed explicitly into every mutating call.
type Session struct {
	User string
	Role string
}

// CanDelete reports whether this session may remove roster rows. Guests may
// add and update but not delete.
func (s *Session) CanDelete() bool {
	return s != nil && s.Role != RoleGuest
}
