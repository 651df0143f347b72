package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotPayable   = errors.New("order is not payable")
	ErrInvalidID         = errors.New("invalid id")
)

// InsufficientStockError names the product that could not be reserved.
// It unwraps to ErrInsufficientStock so callers can match either way.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
