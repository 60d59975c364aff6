package auth

import (
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name            string `json:"name" validate:"min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// RefreshRequest carries the possibly expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is returned on every successful sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is the signed-in session.
type LoginResponse struct {
	TokenPair
	User    *store.User `json:"user"`
	Role    enums.Role  `json:"role"`
	IsAdmin bool        `json:"isAdmin"`
}
