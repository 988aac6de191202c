package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer       Role = "CUSTOMER"
	RoleDealerManager  Role = "DEALER_MANAGER"
	RoleDealerEmployee Role = "DEALER_EMPLOYEE"
	RoleAdmin          Role = "ADMIN"
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleCustomer, RoleDealerManager, RoleDealerEmployee, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDealerManager, RoleDealerEmployee, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a textual role into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Principal is the authenticated identity resolved from a token subject.
type Principal struct {
	ID       int64
	Username string
	Role     Role
	Active   bool
}
