package domain

import (
	"errors"
	"fmt"
)

// Rejections returned by the cart, selector and finalizer. Callers match
// them with errors.Is.
var (
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidQuantity         = errors.New("quantity must be greater than zero")
	ErrMissingCustomer         = errors.New("customer is required")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrConcurrentStockConflict = errors.New("stock changed by a concurrent sale")
	ErrAmountTooLarge          = errors.New("amount exceeds the supported maximum")

	ErrLineNotFound         = errors.New("cart line not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrInvalidSaleType      = errors.New("sale type must be strip or tablet")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, card or upi")
	ErrSessionNotFound      = errors.New("sale session not found")
)

// ValidationError attaches details to one of the sentinel errors above.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Rejectf wraps a sentinel with formatted details.
func Rejectf(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Details: fmt.Sprintf(format, args...)}
}
