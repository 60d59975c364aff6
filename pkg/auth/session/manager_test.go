package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T) (*Manager, *mockStore) {
	t.Helper()
	store := newMockStore()
	manager, err := newManager(store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data["sess:access-123"]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}
	if store.ttls["sess:access-123"] != time.Hour {
		t.Fatalf("expected refresh ttl of one hour, got %v", store.ttls["sess:access-123"])
	}

	if _, _, err := manager.Rotate(ctx, "access-123", "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data["sess:access-123"]; exists {
		t.Fatalf("old access key left behind")
	}
	if stored := store.data[store.AccessSessionKey(newAccessID)]; stored != newToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}

	if _, _, err := manager.Rotate(ctx, "access-123", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replayed refresh token must be rejected, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "jti-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ok, err := manager.HasSession(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := manager.HasSession(ctx, "jti-1"); err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected blank access id error")
	}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	if _, err := newManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("refresh ttl shorter than access ttl must fail")
	}
	if _, err := newManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 60}); err == nil {
		t.Fatal("zero refresh ttl must fail")
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatal("nil redis client must fail")
	}
}
