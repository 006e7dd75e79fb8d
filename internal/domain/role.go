package domain

import (
	"time"

	"github.com/nexushq/nexus/pkg/idx"
)

// Role names are a closed set, seeded at startup and read-only afterwards.
const (
	RoleAdmin      = "ADMIN"
	RoleSupervisor = "SUPERVISOR"
	RoleEmployee   = "EMPLOYEE"
)

// AllRoles lists every role the system seeds, in seeding order.
var AllRoles = []string{RoleAdmin, RoleSupervisor, RoleEmployee}

type Role struct {
	ID        idx.ID
	Name      string
	CreatedAt time.Time
}

// ValidRoleName reports whether name is one of the seeded roles.
func ValidRoleName(name string) bool {
	for _, r := range AllRoles {
		if r == name {
			return true
		}
	}
	return false
}
