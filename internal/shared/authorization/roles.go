package authorization

import (
	"fmt"
	"strings"
)

// Role is a single bit of the persisted role column.
type Role uint8

const (
	RoleUser  Role = 1 << 0
	RoleAdmin Role = 1 << 1

	allRoles = RoleUser | RoleAdmin
)

// Scopes carried in the session token audience.
const (
	ScopeUser  = "core:user"
	ScopeAdmin = "core:admin"
)

var roleScopes = []struct {
	role  Role
	scope string
	name  string
}{
	{RoleUser, ScopeUser, "USER"},
	{RoleAdmin, ScopeAdmin, "ADMIN"},
}

// RoleSet is the typed form of the persisted role bitmask.
type RoleSet uint8

// NewRoleSet validates a raw column value. Zero and unknown bits are rejected.
func NewRoleSet(bits int) (RoleSet, error) {
	if bits <= 0 || bits&^int(allRoles) != 0 {
		return 0, fmt.Errorf("invalid role bits: %d", bits)
	}
	return RoleSet(bits), nil
}

// RolesOf builds a set from individual roles.
func RolesOf(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= RoleSet(r)
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

func (s RoleSet) Bits() int {
	return int(s)
}

// Scopes returns the token scopes for the set, USER first.
func (s RoleSet) Scopes() []string {
	scopes := make([]string, 0, len(roleScopes))
	for _, rs := range roleScopes {
		if s.Has(rs.role) {
			scopes = append(scopes, rs.scope)
		}
	}
	return scopes
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(roleScopes))
	for _, rs := range roleScopes {
		if s.Has(rs.role) {
			names = append(names, rs.name)
		}
	}
	return strings.Join(names, "|")
}
