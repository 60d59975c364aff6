package pricing

import (
	"testing"

	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCartQuote(t *testing.T) {
	cases := []struct {
		name      string
		subtotal  string
		shipping  string
		tax       string
		total     string
		remaining string
	}{
		{name: "empty", subtotal: "0", shipping: "10", tax: "0", total: "10", remaining: "0"},
		{name: "below threshold", subtotal: "45.99", shipping: "10", tax: "3.68", total: "59.67", remaining: "29.01"},
		{name: "at threshold", subtotal: "75", shipping: "10", tax: "6", total: "91", remaining: "0"},
		{name: "above threshold", subtotal: "96.50", shipping: "0", tax: "7.72", total: "104.22", remaining: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := CartQuote(dec(tc.subtotal))
			if !q.Shipping.Equal(dec(tc.shipping)) {
				t.Fatalf("shipping: expected %s got %s", tc.shipping, q.Shipping)
			}
			if !q.Tax.Equal(dec(tc.tax)) {
				t.Fatalf("tax: expected %s got %s", tc.tax, q.Tax)
			}
			if !q.Total.Equal(dec(tc.total)) {
				t.Fatalf("total: expected %s got %s", tc.total, q.Total)
			}
			if !q.RemainingForFreeShipping.Equal(dec(tc.remaining)) {
				t.Fatalf("remaining: expected %s got %s", tc.remaining, q.RemainingForFreeShipping)
			}
		})
	}
}

func TestCheckoutQuoteByMethod(t *testing.T) {
	subtotal := dec("100")
	want := map[enums.ShippingMethod]string{
		enums.ShippingStandard:  "118",
		enums.ShippingExpress:   "133",
		enums.ShippingOvernight: "158",
	}
	for method, total := range want {
		q := CheckoutQuote(subtotal, method)
		if !q.Total.Equal(dec(total)) {
			t.Fatalf("%s: expected total %s got %s", method, total, q.Total)
		}
		if q.ShippingMethod != method.String() || q.ShippingWindow == "" {
			t.Fatalf("%s: unexpected method metadata %+v", method, q)
		}
	}

	fallback := CheckoutQuote(subtotal, enums.ShippingMethod("drone"))
	if fallback.ShippingMethod != "standard" || !fallback.Shipping.Equal(dec("10")) {
		t.Fatalf("unknown method should price as standard, got %+v", fallback)
	}
}

func TestShippingOptionsOrder(t *testing.T) {
	opts := ShippingOptions()
	if len(opts) != 3 || opts[0].Method != enums.ShippingStandard || opts[2].Window != "1 business day" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestCentsRoundsHalfUp(t *testing.T) {
	if got := Cents(dec("3.675")); !got.Equal(dec("3.68")) {
		t.Fatalf("expected 3.68 got %s", got)
	}
	if got := Cents(dec("3.674")); !got.Equal(dec("3.67")) {
		t.Fatalf("expected 3.67 got %s", got)
	}
}
