package models

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDiscountNotFound = errors.New("discount code not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrCategoryNotFound = errors.New("category not found")

	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingAddress    = errors.New("shipping address is required")
	ErrAddressLimit      = errors.New("address limit reached")
	ErrDiscountInvalid   = errors.New("discount code is invalid")
	ErrDiscountExhausted = errors.New("discount code usage limit reached")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrEmailTaken        = errors.New("email is already taken")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrUnauthenticated   = errors.New("sign in required")
	ErrForbidden         = errors.New("admin access required")
	ErrResetCodeInvalid  = errors.New("reset code is invalid or expired")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound reports whether err is one of the *NotFound sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrProductNotFound, ErrOrderNotFound, ErrUserNotFound,
		ErrDiscountNotFound, ErrAddressNotFound, ErrCategoryNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
