package auth

import (
	"github.com/medhealth/fieldforce-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the public self-registration body. Accounts created
// this way are always representatives.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,strongpassword"`
}

// RefreshRequest carries the refresh token plus the (possibly expired)
// access token whose session it belongs to.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}
