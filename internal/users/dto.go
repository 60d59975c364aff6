package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/google/uuid"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateUserDTO holds what the repository needs to persist a new user.
type CreateUserDTO struct {
	Email        string
	Name         string
	PasswordHash string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(c.Email),
		Name:         strings.TrimSpace(c.Name),
		PasswordHash: c.PasswordHash,
	}
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
