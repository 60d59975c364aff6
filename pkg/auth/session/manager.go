// Package session tracks refresh tokens for signed-in storefront users. Each
// access token's jti owns one refresh token; rotating consumes it.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	redisclient "github.com/angelmondragon/sweetdelights-backend/pkg/redis"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware asks on every request.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store sessionStore
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return newManager(client, cfg)
}

// newManager requires the refresh TTL to outlive the access token.
func newManager(store sessionStore, cfg config.JWTConfig) (*Manager, error) {
	refreshTTL := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case refreshTTL <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case refreshTTL <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}
	return &Manager{store: store, ttl: refreshTTL}, nil
}

// NewAccessID is the JWT jti and the refresh key suffix.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if blank(accessID) {
		return "", errMissingAccessID
	}
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", fmt.Errorf("storing refresh token: %w", err)
	}
	return token, nil
}

// Rotate consumes the refresh token bound to oldAccessID and issues a new
// access id with its own refresh token. A consumed token cannot be replayed.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (newAccessID, newToken string, err error) {
	if blank(oldAccessID) || blank(provided) {
		return "", "", ErrInvalidRefreshToken
	}
	stored, found, err := m.lookup(ctx, oldAccessID)
	if err != nil {
		return "", "", err
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	if err := m.Revoke(ctx, oldAccessID); err != nil {
		return "", "", err
	}
	newAccessID = NewAccessID()
	if newToken, err = m.Generate(ctx, newAccessID); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errMissingAccessID
	}
	_, found, err := m.lookup(ctx, accessID)
	return found, err
}

func (m *Manager) lookup(ctx context.Context, accessID string) (string, bool, error) {
	token, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case redisclient.IsNil(err):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("loading refresh session: %w", err)
	}
	return token, true, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
