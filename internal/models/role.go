package models

import "fmt"

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleAnalyst, RoleViewer}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role, rejecting anything outside the set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
