// Package validate holds the shared struct validator so HTTP decoding and
// domain services report field errors the same way.
package validate

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	instance = newValidator()
	expiryRe = regexp.MustCompile(`^\d{2}/\d{2}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// card expiry as MM/YY; the month value itself is not range checked
	mustRegister(v, "expiry", func(fl validator.FieldLevel) bool {
		return expiryRe.MatchString(fl.Field().String())
	})
	return v
}

// mustRegister panics so a bad custom tag fails at startup instead of
// surfacing as an "undefined validation" panic on the first request.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %q: %v", tag, err))
	}
}

// Struct validates v and returns a CodeValidation error whose details map
// JSON field names to messages.
func Struct(v any) error {
	if err := instance.Struct(v); err != nil {
		return format(err)
	}
	return nil
}

func format(err error) error {
	var errs validator.ValidationErrors
	if stdErrors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = message(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "eqfield":
		return fmt.Sprintf("must match %s", fieldLabel(fe.Param()))
	case "expiry":
		return "must be in MM/YY format"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}

func fieldLabel(goName string) string {
	switch goName {
	case "Password":
		return "password"
	}
	return goName
}
