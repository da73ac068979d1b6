package domain

import "fmt"

// UserRole is the platform-wide role of a user. Roles are ordered by privilege.
type UserRole string

const (
	RoleSegnalatori              UserRole = "segnalatori"
	RoleSportelloLavoro          UserRole = "sportello_lavoro"
	RoleResponsabileTerritoriale UserRole = "responsabile_territoriale"
	RoleAdmin                    UserRole = "admin"
	RoleSuperAdmin               UserRole = "super_admin"
)

var roleLevels = map[UserRole]int{
	RoleSegnalatori:              1,
	RoleSportelloLavoro:          2,
	RoleResponsabileTerritoriale: 3,
	RoleAdmin:                    4,
	RoleSuperAdmin:               5,
}

// AllUserRoles lists roles from lowest to highest privilege.
func AllUserRoles() []UserRole {
	return []UserRole{RoleSegnalatori, RoleSportelloLavoro, RoleResponsabileTerritoriale, RoleAdmin, RoleSuperAdmin}
}

// ParseUserRole validates a raw role string.
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r UserRole) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// IsPrivileged reports whether the role bypasses scope filtering and approval.
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Level returns the position of the role in the privilege order, 0 for unknown roles.
func (r UserRole) Level() int {
	return roleLevels[r]
}

// Outranks reports whether r is strictly more privileged than other.
func (r UserRole) Outranks(other UserRole) bool {
	return r.Level() > other.Level()
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   UserRole
	Name   string
}

func (a Actor) IsPrivileged() bool {
	return a.Role.IsPrivileged()
}
