package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Role              enums.UserRole    `json:"role"`
	LineManagerID     *uuid.UUID        `json:"lmId"`
	DistrictManagerID *uuid.UUID        `json:"dmId"`
	AreaManagerID     *uuid.UUID        `json:"areaId"`
	Governorate       *string           `json:"governorate,omitempty"`
	Phone             *string           `json:"phone,omitempty"`
	Address           *string           `json:"address,omitempty"`
	Avatar            *string           `json:"avatar,omitempty"`
	IsActive          bool              `json:"isActive"`
	HolidaysTaken     int               `json:"holidaysTaken"`
	KPI               int               `json:"kpi"`
	Preferences       types.Preferences `json:"preferences"`
	LastLoginAt       *time.Time        `json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Summary is the short form used when a user is embedded in another payload.
type Summary struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

// ProfileDTO is the caller's own profile with managers resolved.
type ProfileDTO struct {
	UserDTO
	LineManager     *Summary `json:"lineManager"`
	DistrictManager *Summary `json:"districtManager"`
}

// CreateUserInput is accepted by POST /users and /auth/create-user.
type CreateUserInput struct {
	Name              string         `json:"name" validate:"required,min=2,max=120"`
	Email             string         `json:"email" validate:"required,email,max=254"`
	Password          string         `json:"password" validate:"required,strongpassword"`
	Role              enums.UserRole `json:"role" validate:"omitempty,role"`
	LineManagerID     *uuid.UUID     `json:"lmId"`
	DistrictManagerID *uuid.UUID     `json:"dmId"`
	AreaManagerID     *uuid.UUID     `json:"areaId"`
	Governorate       *string        `json:"governorate" validate:"omitempty,max=120"`
	Phone             *string        `json:"phone" validate:"omitempty,max=32"`
	Address           *string        `json:"address" validate:"omitempty,max=255"`
}

// UpdateUserInput is the administrative edit. Reporting lines use
// NullableUUID so an explicit null clears the reference.
type UpdateUserInput struct {
	Name              *string            `json:"name" validate:"omitempty,min=2,max=120"`
	Email             *string            `json:"email" validate:"omitempty,email,max=254"`
	Role              *enums.UserRole    `json:"role" validate:"omitempty,role"`
	LineManagerID     types.NullableUUID `json:"lmId"`
	DistrictManagerID types.NullableUUID `json:"dmId"`
	AreaManagerID     types.NullableUUID `json:"areaId"`
	Governorate       *string            `json:"governorate" validate:"omitempty,max=120"`
	Phone             *string            `json:"phone" validate:"omitempty,max=32"`
	IsActive          *bool              `json:"isActive"`
	KPI               *int               `json:"kpi" validate:"omitempty,min=0,max=100"`
}

// UpdateProfileInput is the self-service profile edit.
type UpdateProfileInput struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email   *string `json:"email" validate:"omitempty,email,max=254"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Avatar  *string `json:"avatar" validate:"omitempty,max=512"`
}

// ChangePasswordInput carries the password rotation request.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

// FromModel converts a persisted user into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		LineManagerID:     u.LineManagerID,
		DistrictManagerID: u.DistrictManagerID,
		AreaManagerID:     u.AreaManagerID,
		Governorate:       u.Governorate,
		Phone:             u.Phone,
		Address:           u.Address,
		Avatar:            u.Avatar,
		IsActive:          u.IsActive,
		HolidaysTaken:     u.HolidaysTaken,
		KPI:               u.KPI,
		Preferences:       u.Preferences,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// SummaryOf returns the short form of u.
func SummaryOf(u *models.User) *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func fromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
