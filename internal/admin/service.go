// Package admin serves the read-only operator dashboard.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/internal/users"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// PopularCount is how many cakes the dashboard lists as popular.
const PopularCount = 5

type cakeSource interface {
	All() []catalog.Cake
	Count() int
}

type customerLister interface {
	List(ctx context.Context, limit int) ([]models.User, error)
}

// Service exposes the admin tabs.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Products(ctx context.Context) ([]catalog.Cake, error)
	Orders(ctx context.Context) ([]OrderSummary, error)
	Customers(ctx context.Context, limit int) ([]*users.UserDTO, error)
}

// Stat is one dashboard tile.
type Stat struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Value  decimal.Decimal `json:"value"`
	Change string          `json:"change"`
}

// OrderSummary is a row of the orders table.
type OrderSummary struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Total    decimal.Decimal   `json:"total"`
	Status   enums.OrderStatus `json:"status"`
	Date     time.Time         `json:"date"`
}

// Dashboard is the landing tab.
type Dashboard struct {
	Stats           []Stat              `json:"stats"`
	PopularProducts []catalog.Cake      `json:"popularProducts"`
	RecentOrders    []OrderSummary      `json:"recentOrders"`
	StatusOptions   []enums.OrderStatus `json:"statusOptions"`
}

type service struct {
	cakes     cakeSource
	customers customerLister
}

func NewService(cakes cakeSource, customers customerLister) (Service, error) {
	if cakes == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer lister required")
	}
	return &service{cakes: cakes, customers: customers}, nil
}

func (s *service) Dashboard(_ context.Context) (*Dashboard, error) {
	all := s.cakes.All()
	popular := all
	if len(popular) > PopularCount {
		popular = popular[:PopularCount]
	}
	return &Dashboard{
		Stats: []Stat{
			{Key: "revenue", Label: "Total Revenue", Value: decimal.NewFromInt(12456), Change: "+12%"},
			{Key: "orders", Label: "Orders", Value: decimal.NewFromInt(234), Change: "+8%"},
			{Key: "products", Label: "Products", Value: decimal.NewFromInt(int64(s.cakes.Count())), Change: "+2"},
			{Key: "customers", Label: "Customers", Value: decimal.NewFromInt(1234), Change: "+15%"},
		},
		PopularProducts: popular,
		RecentOrders:    recentOrders(),
		StatusOptions:   enums.OrderStatuses(),
	}, nil
}

func (s *service) Products(_ context.Context) ([]catalog.Cake, error) {
	return s.cakes.All(), nil
}

func (s *service) Orders(_ context.Context) ([]OrderSummary, error) {
	return recentOrders(), nil
}

func (s *service) Customers(ctx context.Context, limit int) ([]*users.UserDTO, error) {
	list, err := s.customers.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	out := make([]*users.UserDTO, 0, len(list))
	for i := range list {
		out = append(out, users.FromModel(&list[i]))
	}
	return out, nil
}

func recentOrders() []OrderSummary {
	day := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}
	return []OrderSummary{
		{ID: "ORD-001", Customer: "John Doe", Total: decimal.RequireFromString("45.99"), Status: enums.OrderStatusProcessing, Date: day("2024-10-25")},
		{ID: "ORD-002", Customer: "Jane Smith", Total: decimal.RequireFromString("96.50"), Status: enums.OrderStatusShipped, Date: day("2024-10-24")},
		{ID: "ORD-003", Customer: "Bob Johnson", Total: decimal.RequireFromString("52.00"), Status: enums.OrderStatusDelivered, Date: day("2024-10-23")},
	}
}
