// Package auth signs storefront sessions in and out and issues the JWT and
// refresh token pair for each sign-in.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/internal/users"
	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Service signs sessions in and out.
type Service interface {
	Login(ctx context.Context, sessionID string, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, sessionID string, req RegisterRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID, accessID string) error
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type stateStore interface {
	SignIn(ctx context.Context, sessionID string, user store.User, isAdmin bool) (store.State, error)
	SignOut(ctx context.Context, sessionID string) (store.State, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Store          stateStore
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
	Delay          time.Duration
	Logger         *logger.Logger
	Metrics        *metrics.Storefront
}

type service struct {
	users       userRepository
	session     sessionManager
	store       stateStore
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
	delay       time.Duration
	logg        *logger.Logger
	metrics     *metrics.Storefront
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, errors.New("user repository is required")
	case params.SessionManager == nil:
		return nil, errors.New("session manager is required")
	case params.Store == nil:
		return nil, errors.New("state store is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		store:       params.Store,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
		delay:       params.Delay,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         time.Now,
	}, nil
}
