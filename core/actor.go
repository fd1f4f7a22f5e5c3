package core

import "strings"

// Roles
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleAgent      = "AGENT"
	RoleStudent    = "STUDENT"
)

var (
	AdminRoles = []string{RoleSuperAdmin, RoleAdmin}
	AllRoles   = []string{RoleSuperAdmin, RoleAdmin, RoleAgent, RoleStudent}
)

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) IsAgent() bool {
	return strings.EqualFold(a.Role, RoleAgent)
}

func (a Actor) IsAdmin() bool {
	return IsAdminRole(a.Role)
}

func (a Actor) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(a.Role, r) {
			return true
		}
	}
	return false
}

func IsAdminRole(role string) bool {
	for _, r := range AdminRoles {
		if strings.EqualFold(role, r) {
			return true
		}
	}
	return false
}
