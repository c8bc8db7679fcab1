package cart

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	// ErrProductNotFound indicates the SKU or product is not in the catalog.
	ErrProductNotFound = fmt.Errorf("%w: product", shared.ErrNotFound)
	// ErrLineNotFound indicates the product is not in the dealer's cart.
	ErrLineNotFound = fmt.Errorf("%w: cart line", shared.ErrNotFound)
	// ErrInvalidQuantity indicates a non-positive quantity on add.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
)
