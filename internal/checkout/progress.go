package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	redisclient "github.com/angelmondragon/sweetdelights-backend/pkg/redis"
)

// ShippingDetails is step one of checkout.
type ShippingDetails struct {
	FullName string `json:"fullName" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"min=10"`
	Street   string `json:"street" validate:"min=5"`
	City     string `json:"city" validate:"min=2"`
	State    string `json:"state" validate:"min=2"`
	ZipCode  string `json:"zipCode" validate:"min=5"`
}

// Progress is where a session is in the checkout flow.
type Progress struct {
	Step           enums.CheckoutStep   `json:"step"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod"`
	Shipping       *ShippingDetails     `json:"shipping,omitempty"`
}

func newProgress() Progress {
	return Progress{Step: enums.CheckoutStepShipping, ShippingMethod: enums.ShippingStandard}
}

// ProgressRepository persists checkout progress per session. Get returns the
// initial progress when nothing is stored.
type ProgressRepository interface {
	Get(ctx context.Context, sessionID string) (Progress, error)
	Save(ctx context.Context, sessionID string, progress Progress) error
	Delete(ctx context.Context, sessionID string) error
}

type progressKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutKey(sessionID string) string
}

type redisProgressRepository struct {
	kv  progressKV
	ttl time.Duration
}

// NewRedisProgressRepository stores progress as JSON that expires after ttl of inactivity.
func NewRedisProgressRepository(client *redisclient.Client, ttl time.Duration) (ProgressRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisProgressRepository{kv: client, ttl: ttl}, nil
}

func (r *redisProgressRepository) Get(ctx context.Context, sessionID string) (Progress, error) {
	raw, err := r.kv.Get(ctx, r.kv.CheckoutKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return newProgress(), nil
		}
		return Progress{}, err
	}
	var p Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return newProgress(), nil
	}
	// Unreadable progress restarts checkout rather than failing the request.
	step, err := enums.ParseCheckoutStep(string(p.Step))
	if err != nil {
		return newProgress(), nil
	}
	p.Step = step
	return p, nil
}

func (r *redisProgressRepository) Save(ctx context.Context, sessionID string, progress Progress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, r.kv.CheckoutKey(sessionID), string(payload), r.ttl)
}

func (r *redisProgressRepository) Delete(ctx context.Context, sessionID string) error {
	return r.kv.Del(ctx, r.kv.CheckoutKey(sessionID))
}

type memoryProgressRepository struct {
	mu   sync.Mutex
	data map[string]Progress
}

// NewMemoryProgressRepository keeps progress in process memory.
func NewMemoryProgressRepository() ProgressRepository {
	return &memoryProgressRepository{data: map[string]Progress{}}
}

func (r *memoryProgressRepository) Get(_ context.Context, sessionID string) (Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[sessionID]
	if !ok {
		return newProgress(), nil
	}
	if p.Shipping != nil {
		shipping := *p.Shipping
		p.Shipping = &shipping
	}
	return p, nil
}

func (r *memoryProgressRepository) Save(_ context.Context, sessionID string, progress Progress) error {
	if progress.Shipping != nil {
		shipping := *progress.Shipping
		progress.Shipping = &shipping
	}
	r.mu.Lock()
	r.data[sessionID] = progress
	r.mu.Unlock()
	return nil
}

func (r *memoryProgressRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.data, sessionID)
	r.mu.Unlock()
	return nil
}
