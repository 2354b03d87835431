package checkout

import (
	"errors"
	"fmt"
)

// Caller errors. Handlers map these to 4xx responses; anything else coming
// out of Checkout is a server-side failure.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingPhone     = errors.New("delivery phone is required")
)

// ProductMissingError: a cart line references a product deleted between the
// cart snapshot and checkout. Stock decremented for earlier lines in the
// same pass is not rolled back.
type ProductMissingError struct {
	ProductID string
}

func (e *ProductMissingError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError identifies the offending product and how many units
// were actually available.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s. Available: %d", e.Name, e.Available)
}
