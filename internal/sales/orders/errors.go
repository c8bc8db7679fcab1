package orders

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	ErrNotFound  = fmt.Errorf("%w: purchase order", shared.ErrNotFound)
	ErrEmptyCart = fmt.Errorf("%w: cart is empty", shared.ErrValidation)
	ErrNoItems   = fmt.Errorf("%w: purchase order requires at least one item", shared.ErrValidation)
	ErrNoDealer  = fmt.Errorf("%w: purchase order requires a dealer", shared.ErrValidation)
	ErrNoNumber  = fmt.Errorf("%w: purchase order requires a number", shared.ErrValidation)
	ErrBadStatus = fmt.Errorf("%w: unknown purchase order status", shared.ErrValidation)
	// ErrProcessingIsGenerated refuses a manual move to processing, which only
	// delivery order generation may make.
	ErrProcessingIsGenerated = fmt.Errorf("%w: purchase orders enter processing when their delivery order is generated", shared.ErrInvalidTransition)
)
