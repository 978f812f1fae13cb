package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrCartEmpty                = errors.New("cart is empty")
	ErrInvalidQuantity          = errors.New("quantity must be at least 1")
	ErrPaymentMethodRequired    = errors.New("payment method is required")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrUnauthenticated          = errors.New("login required")
)

// FieldError is one failed field of a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid " + strings.Join(names, ", ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{}
	for _, e := range ve {
		out.Fields = append(out.Fields, FieldError{Field: e.Field(), Message: validationMessage(e)})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + e.Param() + " characters"
	default:
		return "Invalid value"
	}
}
