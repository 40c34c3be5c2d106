package domain

import "strconv"

// Role is the authorization level of a user.
type Role int

const (
	RoleUser  Role = 1
	RoleAdmin Role = 2
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
}
