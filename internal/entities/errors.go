package entities

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("missing or invalid credential")
	ErrUnauthorized    = errors.New("not authorized")

	ErrOrderNotFound = errors.New("order not found")
	ErrCartNotFound  = errors.New("cart not found")
	ErrItemNotFound  = errors.New("item not found in cart")

	ErrEmptyCart          = errors.New("cart is empty")
	ErrIncompleteAddress  = errors.New("street, city and state are required in delivery address")
	ErrRestaurantMismatch = errors.New("cannot mix items from different restaurants in one cart")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionError carries the current and requested statuses so a caller can
// decide whether to retry after refreshing the order.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
