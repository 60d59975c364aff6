package store

import (
	"time"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CartItem is one cart line. The cake is a snapshot taken when the line was
// added; its id is what identifies the line for removal and quantity updates.
type CartItem struct {
	Cake             catalog.Cake `json:"cake"`
	Quantity         int          `json:"quantity"`
	SelectedSize     string       `json:"selectedSize"`
	SelectedFrosting string       `json:"selectedFrosting"`
	CustomMessage    string       `json:"customMessage,omitempty"`
}

// UnitPrice is the selected size price, or the base price when the size is unknown.
func (i CartItem) UnitPrice() decimal.Decimal {
	return i.Cake.PriceFor(i.SelectedSize)
}

// LineTotal is UnitPrice times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) sameLine(other CartItem) bool {
	return i.Cake.ID == other.Cake.ID &&
		i.SelectedSize == other.SelectedSize &&
		i.SelectedFrosting == other.SelectedFrosting
}

type Address struct {
	ID        string `json:"id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	IsDefault bool   `json:"isDefault"`
}

type Order struct {
	ID                string            `json:"id"`
	Items             []CartItem        `json:"items"`
	Total             decimal.Decimal   `json:"total"`
	Status            enums.OrderStatus `json:"status"`
	ShippingAddress   Address           `json:"shippingAddress"`
	CreatedAt         time.Time         `json:"createdAt"`
	EstimatedDelivery time.Time         `json:"estimatedDelivery"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Addresses []Address `json:"addresses"`
	Orders    []Order   `json:"orders"`
}

// State is everything the storefront remembers about one browser session.
// Transitions are value methods that return the next state and never fail.
type State struct {
	Cart    []CartItem `json:"cart"`
	User    *User      `json:"user"`
	IsAdmin bool       `json:"isAdmin"`
}

// Empty is the state of a session that has never been persisted.
func Empty() State {
	return State{Cart: []CartItem{}}
}

// AddToCart merges item into an existing line with the same cake, size and
// frosting, or appends it as a new line.
func (s State) AddToCart(item CartItem) State {
	cart := s.cloneCart()
	for i := range cart {
		if cart[i].sameLine(item) {
			cart[i].Quantity += item.Quantity
			s.Cart = cart
			return s
		}
	}
	s.Cart = append(cart, item)
	return s
}

// RemoveFromCart drops every line for cakeID, whatever its size or frosting.
func (s State) RemoveFromCart(cakeID string) State {
	cart := make([]CartItem, 0, len(s.Cart))
	for _, item := range s.Cart {
		if item.Cake.ID != cakeID {
			cart = append(cart, item)
		}
	}
	s.Cart = cart
	return s
}

// UpdateQuantity sets quantity on every line for cakeID. The value is not validated.
func (s State) UpdateQuantity(cakeID string, quantity int) State {
	cart := s.cloneCart()
	for i := range cart {
		if cart[i].Cake.ID == cakeID {
			cart[i].Quantity = quantity
		}
	}
	s.Cart = cart
	return s
}

func (s State) ClearCart() State {
	s.Cart = []CartItem{}
	return s
}

func (s State) SetUser(user *User) State {
	s.User = user
	return s
}

func (s State) SetAdmin(isAdmin bool) State {
	s.IsAdmin = isAdmin
	return s
}

// AddAddress appends to the signed-in user's addresses. Several addresses may
// be flagged default. It is a no-op without a user.
func (s State) AddAddress(addr Address) State {
	if s.User == nil {
		return s
	}
	user := *s.User
	user.Addresses = append(append(make([]Address, 0, len(user.Addresses)+1), user.Addresses...), addr)
	s.User = &user
	return s
}

// CartTotal sums the line totals; it is recomputed on every call.
func (s State) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Cart {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount is the sum of quantities, as shown on the header badge.
func (s State) ItemCount() int {
	n := 0
	for _, item := range s.Cart {
		n += item.Quantity
	}
	return n
}

func (s State) cloneCart() []CartItem {
	cart := make([]CartItem, len(s.Cart), len(s.Cart)+1)
	copy(cart, s.Cart)
	return cart
}
