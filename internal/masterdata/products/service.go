package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SortColumns are the columns a product list may be ordered by. The first is
// the default.
var SortColumns = []string{"name", "sku", "price", "created_at"}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	filters, err := filters.Normalize(SortColumns...)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// GetBySKU looks a product up by its stock keeping unit. Inactive products are
// reported as missing so they cannot be ordered.
func (s *Service) GetBySKU(ctx context.Context, sku string) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, shared.ErrRequiredField
	}
	p, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, fmt.Errorf("%w: sku %s is inactive", shared.ErrNotFound, sku)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	product := Product{
		SKU:      strings.TrimSpace(req.SKU),
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		IsActive: true,
	}
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

// UpdatePrice changes the catalog price. Existing quotations and orders keep
// the price they were created with.
func (s *Service) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrInvalidID
	}
	if price.IsNegative() {
		return Product{}, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if err := s.repo.UpdatePrice(ctx, id, price); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}
