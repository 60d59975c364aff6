package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
)

// ErrNoState is returned by a Persister when nothing is stored for a session.
var ErrNoState = errors.New("no persisted state")

// Persister stores the serialized state of a session.
type Persister interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, payload []byte) error
}

// Store rehydrates, mutates and persists session state. Mutations of one
// session are serialized so a load/save pair is never interleaved.
type Store struct {
	persister Persister
	logg      *logger.Logger
	metrics   *metrics.Storefront
	locks     *keyedMutex
}

func NewStore(persister Persister, logg *logger.Logger, m *metrics.Storefront) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("state persister required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		persister: persister,
		logg:      logg,
		metrics:   m,
		locks:     newKeyedMutex(),
	}, nil
}

// Load returns the persisted state of sessionID, or Empty when none exists.
func (s *Store) Load(ctx context.Context, sessionID string) (State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.load(ctx, sessionID)
}

// Update applies fn to the current state under the session lock and persists
// the result. A non-empty op is counted as a cart mutation.
func (s *Store) Update(ctx context.Context, sessionID, op string, fn func(State) State) (State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	current, err := s.load(ctx, sessionID)
	if err != nil {
		return State{}, err
	}
	next := fn(current)

	payload, err := json.Marshal(next)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session state")
	}
	if err := s.persister.Save(ctx, sessionID, payload); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session state")
	}
	if op != "" {
		s.metrics.IncCartMutation(op)
	}
	return next, nil
}

func (s *Store) AddToCart(ctx context.Context, sessionID string, item CartItem) (State, error) {
	return s.Update(ctx, sessionID, "add", func(st State) State { return st.AddToCart(item) })
}

func (s *Store) RemoveFromCart(ctx context.Context, sessionID, cakeID string) (State, error) {
	return s.Update(ctx, sessionID, "remove", func(st State) State { return st.RemoveFromCart(cakeID) })
}

func (s *Store) UpdateQuantity(ctx context.Context, sessionID, cakeID string, quantity int) (State, error) {
	return s.Update(ctx, sessionID, "update_quantity", func(st State) State { return st.UpdateQuantity(cakeID, quantity) })
}

func (s *Store) ClearCart(ctx context.Context, sessionID string) (State, error) {
	return s.Update(ctx, sessionID, "clear", func(st State) State { return st.ClearCart() })
}

func (s *Store) AddAddress(ctx context.Context, sessionID string, addr Address) (State, error) {
	return s.Update(ctx, sessionID, "", func(st State) State { return st.AddAddress(addr) })
}

// SignIn sets the user and admin flag in one persisted step.
func (s *Store) SignIn(ctx context.Context, sessionID string, user User, isAdmin bool) (State, error) {
	return s.Update(ctx, sessionID, "", func(st State) State {
		return st.SetUser(&user).SetAdmin(isAdmin)
	})
}

// SignOut clears the user and the admin flag; the cart is kept.
func (s *Store) SignOut(ctx context.Context, sessionID string) (State, error) {
	return s.Update(ctx, sessionID, "", func(st State) State {
		return st.SetUser(nil).SetAdmin(false)
	})
}

func (s *Store) load(ctx context.Context, sessionID string) (State, error) {
	payload, err := s.persister.Load(ctx, sessionID)
	if errors.Is(err, ErrNoState) {
		return Empty(), nil
	}
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session state")
	}

	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		// unreadable snapshots are discarded, same as a fresh session
		s.logg.Warn(s.logg.WithField(ctx, "decode_error", err.Error()), "store.state_discarded")
		return Empty(), nil
	}
	if st.Cart == nil {
		st.Cart = []CartItem{}
	}
	return st, nil
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*refLock{}}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
