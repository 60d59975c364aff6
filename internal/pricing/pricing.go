// Package pricing derives shipping, tax and totals from a cart subtotal.
package pricing

import (
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	// TaxRate applies to the subtotal only.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold must be exceeded, not met, for free cart shipping.
	FreeShippingThreshold = decimal.NewFromInt(75)
	// FlatShipping is the cart page estimate below the threshold.
	FlatShipping = decimal.NewFromInt(10)
)

// ShippingOption describes one delivery speed offered at checkout.
type ShippingOption struct {
	Method enums.ShippingMethod `json:"method"`
	Name   string               `json:"name"`
	Window string               `json:"window"`
	Cost   decimal.Decimal      `json:"cost"`
}

var shippingOptions = map[enums.ShippingMethod]ShippingOption{
	enums.ShippingStandard:  {Method: enums.ShippingStandard, Name: "Standard Shipping", Window: "5-7 business days", Cost: decimal.NewFromInt(10)},
	enums.ShippingExpress:   {Method: enums.ShippingExpress, Name: "Express Shipping", Window: "2-3 business days", Cost: decimal.NewFromInt(25)},
	enums.ShippingOvernight: {Method: enums.ShippingOvernight, Name: "Overnight Shipping", Window: "1 business day", Cost: decimal.NewFromInt(50)},
}

// ShippingOptions lists the checkout delivery speeds in display order.
func ShippingOptions() []ShippingOption {
	methods := enums.ShippingMethods()
	out := make([]ShippingOption, 0, len(methods))
	for _, m := range methods {
		out = append(out, shippingOptions[m])
	}
	return out
}

// OptionFor returns the option for method; unknown methods price as standard.
func OptionFor(method enums.ShippingMethod) ShippingOption {
	if opt, ok := shippingOptions[method]; ok {
		return opt
	}
	return shippingOptions[enums.ShippingStandard]
}

// Quote is a priced breakdown. Amounts are rounded to cents.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	// RemainingForFreeShipping is set on cart quotes with a positive subtotal below the threshold.
	RemainingForFreeShipping decimal.Decimal `json:"remainingForFreeShipping"`
	ShippingMethod           string          `json:"shippingMethod,omitempty"`
	ShippingWindow           string          `json:"shippingWindow,omitempty"`
}

// CartQuote prices the cart page: shipping is free above the threshold.
func CartQuote(subtotal decimal.Decimal) Quote {
	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	remaining := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThan(FreeShippingThreshold) {
		remaining = FreeShippingThreshold.Sub(subtotal)
	}
	q := build(subtotal, shipping)
	q.RemainingForFreeShipping = Cents(remaining)
	return q
}

// CheckoutQuote prices checkout with the cost of the chosen delivery speed.
func CheckoutQuote(subtotal decimal.Decimal, method enums.ShippingMethod) Quote {
	opt := OptionFor(method)
	q := build(subtotal, opt.Cost)
	q.ShippingMethod = opt.Method.String()
	q.ShippingWindow = opt.Window
	return q
}

func build(subtotal, shipping decimal.Decimal) Quote {
	tax := subtotal.Mul(TaxRate)
	return Quote{
		Subtotal:                 Cents(subtotal),
		Shipping:                 Cents(shipping),
		Tax:                      Cents(tax),
		Total:                    Cents(subtotal.Add(shipping).Add(tax)),
		RemainingForFreeShipping: decimal.Zero,
	}
}

// Cents rounds half away from zero to two places.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
