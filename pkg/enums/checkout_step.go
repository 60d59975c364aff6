package enums

import "fmt"

// CheckoutStep is the current page of the two-step checkout.
type CheckoutStep string

const (
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepShipping,
	CheckoutStepPayment,
}

func (c CheckoutStep) String() string {
	return string(c)
}

// Number is the 1-based position shown in the progress indicator.
func (c CheckoutStep) Number() int {
	if c == CheckoutStepPayment {
		return 2
	}
	return 1
}

func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep is exact; stored progress is always written lowercase.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	step := CheckoutStep(value)
	if !step.IsValid() {
		return "", fmt.Errorf("invalid checkout step %q", value)
	}
	return step, nil
}
