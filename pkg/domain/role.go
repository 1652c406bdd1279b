package domain

import (
	dErrors "investgate/pkg/domain-errors"
)

// Role is the closed set of privilege levels. API payloads carry the
// uppercase string form.
type Role string

const (
	RoleInvestor   Role = "INVESTOR"
	RoleOfficer    Role = "OFFICER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// rolePrivilege is the single source of truth for the privilege ordering.
// "At-least" checks and the named role sets below derive from it; call
// sites never re-list roles.
var rolePrivilege = map[Role]int{
	RoleInvestor:   1,
	RoleOfficer:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ParseRole validates a role string against the closed set.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if _, ok := rolePrivilege[r]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %s", raw)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := rolePrivilege[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of min.
// Unknown roles never satisfy any threshold.
func (r Role) AtLeast(min Role) bool {
	rp, ok := rolePrivilege[r]
	if !ok {
		return false
	}
	mp, ok := rolePrivilege[min]
	if !ok {
		return false
	}
	return rp >= mp
}

// RolesAtLeast returns every role with privilege >= min, for building
// allowed-role sets ("officer-or-above") from the ordering table.
func RolesAtLeast(min Role) []Role {
	mp, ok := rolePrivilege[min]
	if !ok {
		return nil
	}
	var out []Role
	for _, r := range []Role{RoleInvestor, RoleOfficer, RoleAdmin, RoleSuperAdmin} {
		if rolePrivilege[r] >= mp {
			out = append(out, r)
		}
	}
	return out
}
