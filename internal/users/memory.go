package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryRepository keeps registered users in process memory. It backs
// deployments that run without a SQL database.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    map[uuid.UUID]models.User{},
		byEmail: map[string]uuid.UUID{},
		now:     time.Now,
	}
}

func (r *memoryRepository) Create(_ context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return nil, ErrEmailTaken
	}
	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	out := *user
	return &out, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil
	}
	user.LastLoginAt = &at
	r.byID[id] = user
	return nil
}

func (r *memoryRepository) List(_ context.Context, limit int) ([]models.User, error) {
	r.mu.RLock()
	out := make([]models.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
