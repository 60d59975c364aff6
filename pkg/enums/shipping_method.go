package enums

import "fmt"

// ShippingMethod is the delivery speed chosen at checkout.
type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

var validShippingMethods = []ShippingMethod{
	ShippingStandard,
	ShippingExpress,
	ShippingOvernight,
}

// ShippingMethods lists every method in display order.
func ShippingMethods() []ShippingMethod {
	out := make([]ShippingMethod, len(validShippingMethods))
	copy(out, validShippingMethods)
	return out
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod; empty input means standard.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	if value == "" {
		return ShippingStandard, nil
	}
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
