package products

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product sku", shared.ErrRequiredField)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name", shared.ErrRequiredField)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	return nil
}
