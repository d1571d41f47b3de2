package model

import (
	"errors"
	"strings"
)

// Role is the closed set of account roles. Unknown values are rejected
// before any write reaches the database.
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// ErrUnknownRole is returned by ParseRole for values outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

var validRoles = map[Role]struct{}{
	RoleUser:      {},
	RoleLibrarian: {},
	RoleAdmin:     {},
}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validRoles[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}
