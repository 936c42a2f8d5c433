package models

// Role is the authenticated caller's role, supplied by the auth layer.
type Role string

const (
	RoleSponsor Role = "sponsor"
	RoleSingle  Role = "single"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSponsor || r == RoleSingle
}

// Caller is the already-authenticated identity making a request.
type Caller struct {
	ID   string
	Role Role
}
