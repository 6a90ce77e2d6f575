package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidInputError reports a malformed or out-of-range numeric input.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalidInput(field, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientPaymentError signals that cash tendered does not cover the total.
// It is not fatal: the caller decides whether to reject the sale or ask for more cash.
type InsufficientPaymentError struct {
	Total     decimal.Decimal
	Received  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: received %s of %s, short by %s",
		e.Received.StringFixed(moneyPlaces), e.Total.StringFixed(moneyPlaces), e.Shortfall.StringFixed(moneyPlaces))
}
