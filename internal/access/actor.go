// Package access describes the authenticated caller and the role groups used
// for authorization decisions.
package access

import (
	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// Is reports whether the actor is the given user.
func (a Actor) Is(id uuid.UUID) bool {
	return a.ID != uuid.Nil && a.ID == id
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...enums.UserRole) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

var (
	// UserAdmins may create, edit and delete accounts.
	UserAdmins = []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleGeneralManager}
	// BackOffice can read every user and plan.
	BackOffice = []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleGeneralManager, enums.UserRoleHR}
	// Supervisors can read records of other users.
	Supervisors = []enums.UserRole{
		enums.UserRoleAdmin,
		enums.UserRoleGeneralManager,
		enums.UserRoleHR,
		enums.UserRoleLineManager,
		enums.UserRoleDistrictManager,
		enums.UserRoleAreaManager,
	}
)
