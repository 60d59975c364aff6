package auth

import (
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Email     string
	Role      enums.Role
	SessionID string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
	SessionID string     `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants the admin views.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.RoleAdmin
}
