package auth

import "github.com/google/uuid"

// Role is a minimum access level a route can demand.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAuthenticated
	RoleStaff
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAuthenticated:
		return "authenticated"
	case RoleStaff:
		return "staff"
	case RoleAdmin:
		return "admin"
	}
	return "anonymous"
}

// Identity is the authenticated caller. Role flags mirror the user's role
// records at the time of the request.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	IsStudent bool
	IsStaff   bool
	IsAdmin   bool
}

// Level is the highest role the identity satisfies. Admins count as staff.
func (i Identity) Level() Role {
	switch {
	case i.UserID == uuid.Nil:
		return RoleAnonymous
	case i.IsAdmin:
		return RoleAdmin
	case i.IsStaff:
		return RoleStaff
	}
	return RoleAuthenticated
}

func (i Identity) Satisfies(min Role) bool {
	return i.Level() >= min
}

// IsStaffOrAdmin reports whether the caller may act on behalf of others.
func (i Identity) IsStaffOrAdmin() bool {
	return i.IsStaff || i.IsAdmin
}
