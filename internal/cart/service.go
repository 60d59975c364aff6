package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/internal/pricing"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/validate"
	"github.com/shopspring/decimal"
)

// MaxCustomMessage is the longest message piped onto a cake, in characters.
const MaxCustomMessage = 50

type cakeGetter interface {
	Get(id string) (catalog.Cake, error)
}

type stateStore interface {
	Load(ctx context.Context, sessionID string) (store.State, error)
	AddToCart(ctx context.Context, sessionID string, item store.CartItem) (store.State, error)
	RemoveFromCart(ctx context.Context, sessionID, cakeID string) (store.State, error)
	UpdateQuantity(ctx context.Context, sessionID, cakeID string, quantity int) (store.State, error)
	ClearCart(ctx context.Context, sessionID string) (store.State, error)
}

// Service exposes the cart page and its mutations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, sessionID, cakeID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, sessionID, cakeID string) (*View, error)
	Clear(ctx context.Context, sessionID string) (*View, error)
}

// AddItemInput is the product page "add to cart" form. Empty size or
// frosting selects the cake's first option.
type AddItemInput struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      int    `json:"quantity"`
	Size          string `json:"size"`
	Frosting      string `json:"frosting"`
	CustomMessage string `json:"customMessage" validate:"max=50"`
}

// Line is a cart item with its computed prices.
type Line struct {
	store.CartItem
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// View is the cart page model.
type View struct {
	Items     []Line        `json:"items"`
	ItemCount int           `json:"itemCount"`
	Quote     pricing.Quote `json:"quote"`
}

type service struct {
	store stateStore
	cakes cakeGetter
}

// NewService builds a cart service over the session store and catalog.
func NewService(st stateStore, cakes cakeGetter) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("state store required")
	}
	if cakes == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{store: st, cakes: cakes}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(st), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	item, err := s.lineFor(input)
	if err != nil {
		return nil, err
	}
	st, err := s.store.AddToCart(ctx, sessionID, item)
	if err != nil {
		return nil, err
	}
	return NewView(st), nil
}

// UpdateQuantity clamps quantity to at least one; removal is a separate call.
func (s *service) UpdateQuantity(ctx context.Context, sessionID, cakeID string, quantity int) (*View, error) {
	st, err := s.store.UpdateQuantity(ctx, sessionID, cakeID, clampQuantity(quantity))
	if err != nil {
		return nil, err
	}
	return NewView(st), nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID, cakeID string) (*View, error) {
	st, err := s.store.RemoveFromCart(ctx, sessionID, cakeID)
	if err != nil {
		return nil, err
	}
	return NewView(st), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) (*View, error) {
	st, err := s.store.ClearCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(st), nil
}

func (s *service) lineFor(input AddItemInput) (store.CartItem, error) {
	cake, err := s.cakes.Get(strings.TrimSpace(input.ProductID))
	if err != nil {
		return store.CartItem{}, err
	}

	size := strings.TrimSpace(input.Size)
	if size == "" {
		size = cake.DefaultSize()
	} else if !cake.HasSize(size) {
		return store.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"size": "is not offered for this cake"})
	}

	frosting := strings.TrimSpace(input.Frosting)
	if frosting == "" {
		frosting = cake.DefaultFrosting()
	} else if !cake.HasFrosting(frosting) {
		return store.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"frosting": "is not offered for this cake"})
	}

	return store.CartItem{
		Cake:             cake,
		Quantity:         clampQuantity(input.Quantity),
		SelectedSize:     size,
		SelectedFrosting: frosting,
		CustomMessage:    strings.TrimSpace(input.CustomMessage),
	}, nil
}

// NewView prices st's cart for the cart page.
func NewView(st store.State) *View {
	lines := make([]Line, 0, len(st.Cart))
	for _, item := range st.Cart {
		lines = append(lines, Line{
			CartItem:  item,
			UnitPrice: item.UnitPrice(),
			LineTotal: pricing.Cents(item.LineTotal()),
		})
	}
	return &View{
		Items:     lines,
		ItemCount: st.ItemCount(),
		Quote:     pricing.CartQuote(st.CartTotal()),
	}
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
