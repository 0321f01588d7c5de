package auth

import (
	"fmt"
	"strings"
)

// Role is the authorization level of the logged-in principal
type Role int

const (
	// RoleNone means no authenticated principal
	RoleNone Role = iota
	RoleUser
	RoleAdmin
)

// ParseRole converts a stored or backend role string ("user", "ADMIN", ...) to a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

// String returns the lowercase form persisted in the session record
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return ""
	}
}

// Home returns the landing view for the role
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleUser:
		return "/dashboard"
	default:
		return "/login"
	}
}
