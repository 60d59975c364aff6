package store

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/sweetdelights-backend/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	StateKey(sessionID string) string
}

// RedisPersister keeps each session's state as a JSON string with a sliding TTL.
type RedisPersister struct {
	kv  redisKV
	ttl time.Duration
}

func NewRedisPersister(client *redisclient.Client, ttl time.Duration) (*RedisPersister, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisPersister{kv: client, ttl: ttl}, nil
}

func (p *RedisPersister) Load(ctx context.Context, sessionID string) ([]byte, error) {
	raw, err := p.kv.Get(ctx, p.kv.StateKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, ErrNoState
		}
		return nil, err
	}
	return []byte(raw), nil
}

func (p *RedisPersister) Save(ctx context.Context, sessionID string, payload []byte) error {
	return p.kv.Set(ctx, p.kv.StateKey(sessionID), string(payload), p.ttl)
}
