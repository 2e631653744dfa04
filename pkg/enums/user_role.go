package enums

import "fmt"

// UserRole is the organisational role stored on every user.
type UserRole string

const (
	UserRoleAdmin           UserRole = "ADMIN"
	UserRoleGeneralManager  UserRole = "GM"
	UserRoleLineManager     UserRole = "LM"
	UserRoleAreaManager     UserRole = "Area"
	UserRoleDistrictManager UserRole = "DM"
	UserRoleHR              UserRole = "HR"
	UserRoleRepresentative  UserRole = "R"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleGeneralManager,
	UserRoleLineManager,
	UserRoleAreaManager,
	UserRoleDistrictManager,
	UserRoleHR,
	UserRoleRepresentative,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsBackOffice reports roles that are excluded from field performance rankings.
func (r UserRole) IsBackOffice() bool {
	return r == UserRoleAdmin || r == UserRoleGeneralManager || r == UserRoleHR
}

// SeesEveryone reports roles with organisation-wide read access.
func (r UserRole) SeesEveryone() bool {
	return r.IsBackOffice()
}

// IsManager reports roles that sit above representatives in the reporting lines.
func (r UserRole) IsManager() bool {
	return r == UserRoleLineManager || r == UserRoleDistrictManager || r == UserRoleAreaManager
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
