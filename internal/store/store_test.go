package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

type failingPersister struct {
	loadErr error
	saveErr error
	payload []byte
}

func (f *failingPersister) Load(context.Context, string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.payload == nil {
		return nil, ErrNoState
	}
	return f.payload, nil
}

func (f *failingPersister) Save(context.Context, string, []byte) error {
	return f.saveErr
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := NewStore(p, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNewStoreRequiresPersister(t *testing.T) {
	if _, err := NewStore(nil, nil, nil); err == nil {
		t.Fatal("expected error without persister")
	}
}

func TestStoreRehydratesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryPersister()
	first := newTestStore(t, persister)

	if _, err := first.AddToCart(ctx, "sess", CartItem{Cake: testCake("1", "12.50"), Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := first.SignIn(ctx, "sess", User{ID: "u1", Email: "jo@example.com", Name: "jo"}, true); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	second := newTestStore(t, persister)
	st, err := second.Load(ctx, "sess")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Cart) != 1 || st.Cart[0].Quantity != 2 || st.Cart[0].Cake.Name != "Cake 1" {
		t.Fatalf("cart not rehydrated: %+v", st.Cart)
	}
	if st.User == nil || st.User.Email != "jo@example.com" || !st.IsAdmin {
		t.Fatalf("session not rehydrated: %+v", st)
	}

	other, err := second.Load(ctx, "other")
	if err != nil {
		t.Fatalf("load other: %v", err)
	}
	if len(other.Cart) != 0 || other.User != nil {
		t.Fatalf("unknown session must start empty, got %+v", other)
	}
}

func TestStoreSignOutKeepsCart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	_, _ = s.AddToCart(ctx, "sess", CartItem{Cake: testCake("1", "5"), Quantity: 1})
	_, _ = s.SignIn(ctx, "sess", User{ID: "u1"}, true)

	st, err := s.SignOut(ctx, "sess")
	if err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if st.User != nil || st.IsAdmin || len(st.Cart) != 1 {
		t.Fatalf("unexpected state after sign out %+v", st)
	}
}

func TestStoreCorruptPayloadStartsFresh(t *testing.T) {
	s := newTestStore(t, &failingPersister{payload: []byte("{not json")})
	st, err := s.Load(context.Background(), "sess")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Cart == nil || len(st.Cart) != 0 {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestStorePersistenceErrorsAreDependencyErrors(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t, &failingPersister{loadErr: errors.New("conn refused")})
	if _, err := s.Load(ctx, "sess"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on load, got %v", err)
	}

	s = newTestStore(t, &failingPersister{saveErr: errors.New("disk full")})
	if _, err := s.ClearCart(ctx, "sess"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on save, got %v", err)
	}
}

func TestStoreRequiresSessionID(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())
	if _, err := s.Load(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.ClearCart(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreSerializesSessionMutations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	cake := testCake("1", "3")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.AddToCart(ctx, "sess", CartItem{Cake: cake, Quantity: 1}); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	st, err := s.Load(ctx, "sess")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(st.Cart) != 1 || st.Cart[0].Quantity != workers {
		t.Fatalf("expected one line with quantity %d, got %+v", workers, st.Cart)
	}
	if len(s.locks.locks) != 0 {
		t.Fatalf("expected session locks to be released, %d remain", len(s.locks.locks))
	}
}
