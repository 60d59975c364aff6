package validate

import (
	"testing"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

type paymentForm struct {
	CardNumber string `json:"cardNumber" validate:"required,min=16"`
	Expiry     string `json:"expiry" validate:"required,expiry"`
}

type signupForm struct {
	Name            string `json:"name" validate:"required,min=2"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(paymentForm{CardNumber: "4242", Expiry: "1/25"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected map details, got %T", typed.Details())
	}
	if details["cardNumber"] != "must be at least 16 characters" {
		t.Fatalf("unexpected cardNumber message %q", details["cardNumber"])
	}
	if details["expiry"] != "must be in MM/YY format" {
		t.Fatalf("unexpected expiry message %q", details["expiry"])
	}
}

func TestExpiryAcceptsMMYY(t *testing.T) {
	if err := Struct(paymentForm{CardNumber: "4242424242424242", Expiry: "12/27"}); err != nil {
		t.Fatalf("expected valid payment, got %v", err)
	}
	if err := Struct(paymentForm{CardNumber: "4242424242424242", Expiry: "12/2027"}); err == nil {
		t.Fatal("four digit year must fail")
	}
}

func TestConfirmPasswordMustMatch(t *testing.T) {
	err := Struct(signupForm{Name: "Al", Password: "secret1", ConfirmPassword: "secret2"})
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["confirmPassword"] != "must match password" {
		t.Fatalf("unexpected message %q", details["confirmPassword"])
	}
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an empty tag")
		}
	}()
	mustRegister(validator.New(), "", func(validator.FieldLevel) bool { return true })
}
