// Package account serves the signed-in customer's profile page.
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/validate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stateStore interface {
	Load(ctx context.Context, sessionID string) (store.State, error)
	AddAddress(ctx context.Context, sessionID string, addr store.Address) (store.State, error)
}

type cakeLookup interface {
	Get(id string) (catalog.Cake, error)
}

// Service exposes the account page.
type Service interface {
	Overview(ctx context.Context, sessionID string) (*Overview, error)
	AddAddress(ctx context.Context, sessionID string, input AddressInput) (*Overview, error)
}

// AddressInput is the new-address form.
type AddressInput struct {
	Street    string `json:"street" validate:"min=5"`
	City      string `json:"city" validate:"min=2"`
	State     string `json:"state" validate:"min=2"`
	ZipCode   string `json:"zipCode" validate:"min=5"`
	IsDefault bool   `json:"isDefault"`
}

// Overview is the account page model.
type Overview struct {
	User      store.User      `json:"user"`
	IsAdmin   bool            `json:"isAdmin"`
	Addresses []store.Address `json:"addresses"`
	Orders    []store.Order   `json:"orders"`
}

type service struct {
	store   stateStore
	samples []store.Order
}

// NewService builds the account service. Sample orders are resolved from the
// catalog once.
func NewService(st stateStore, cakes cakeLookup) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("state store required")
	}
	if cakes == nil {
		return nil, fmt.Errorf("catalog required")
	}
	samples, err := sampleOrders(cakes)
	if err != nil {
		return nil, err
	}
	return &service{store: st, samples: samples}, nil
}

func (s *service) Overview(ctx context.Context, sessionID string) (*Overview, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.overview(st)
}

func (s *service) AddAddress(ctx context.Context, sessionID string, input AddressInput) (*Overview, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	st, err = s.store.AddAddress(ctx, sessionID, store.Address{
		ID:        uuid.NewString(),
		Street:    strings.TrimSpace(input.Street),
		City:      strings.TrimSpace(input.City),
		State:     strings.TrimSpace(input.State),
		ZipCode:   strings.TrimSpace(input.ZipCode),
		IsDefault: input.IsDefault,
	})
	if err != nil {
		return nil, err
	}
	return s.overview(st)
}

func (s *service) overview(st store.State) (*Overview, error) {
	if st.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	orders := st.User.Orders
	if len(orders) == 0 {
		orders = s.samples
	}
	addresses := st.User.Addresses
	if addresses == nil {
		addresses = []store.Address{}
	}
	return &Overview{
		User:      *st.User,
		IsAdmin:   st.IsAdmin,
		Addresses: addresses,
		Orders:    orders,
	}, nil
}

// sampleOrders are shown to every customer until real orders exist.
func sampleOrders(cakes cakeLookup) ([]store.Order, error) {
	samples := []struct {
		id        string
		cakeID    string
		quantity  int
		total     string
		status    enums.OrderStatus
		createdAt string
		delivery  string
	}{
		{"ORD-001", "1", 1, "45.99", enums.OrderStatusDelivered, "2024-10-20T10:00:00Z", "2024-10-22T10:00:00Z"},
		{"ORD-002", "2", 2, "96.50", enums.OrderStatusShipped, "2024-10-23T14:30:00Z", "2024-10-26T14:30:00Z"},
	}
	out := make([]store.Order, 0, len(samples))
	for _, sample := range samples {
		cake, err := cakes.Get(sample.cakeID)
		if err != nil {
			return nil, fmt.Errorf("sample order %s: %w", sample.id, err)
		}
		created, _ := time.Parse(time.RFC3339, sample.createdAt)
		delivery, _ := time.Parse(time.RFC3339, sample.delivery)
		out = append(out, store.Order{
			ID: sample.id,
			Items: []store.CartItem{{
				Cake:             cake,
				Quantity:         sample.quantity,
				SelectedSize:     cake.DefaultSize(),
				SelectedFrosting: cake.DefaultFrosting(),
			}},
			Total:             decimal.RequireFromString(sample.total),
			Status:            sample.status,
			CreatedAt:         created,
			EstimatedDelivery: delivery,
		})
	}
	return out, nil
}
