package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// Catalog resolves products for cart lines.
type Catalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
	GetBySKU(ctx context.Context, sku string) (products.Product, error)
}

// DealerDirectory confirms the cart owner exists.
type DealerDirectory interface {
	Get(ctx context.Context, id int64) (*dealers.Dealer, error)
}

// Service implements the cart operations.
type Service struct {
	store   Store
	catalog Catalog
	dealers DealerDirectory
	now     func() time.Time
}

// NewService creates a cart service.
func NewService(store Store, catalog Catalog, dealerDir DealerDirectory) *Service {
	return &Service{store: store, catalog: catalog, dealers: dealerDir, now: time.Now}
}

// AddItem adds qty of the product identified by sku, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, dealerID int64, sku string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := s.checkDealer(ctx, dealerID); err != nil {
		return nil, err
	}
	product, err := s.catalog.GetBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) {
			return nil, fmt.Errorf("%w: sku %q", ErrProductNotFound, sku)
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if _, err := s.store.Add(ctx, dealerID, product.ID, qty); err != nil {
		return nil, err
	}
	return s.Get(ctx, dealerID)
}

// UpdateQuantity applies delta to the product's line. The quantity clamps at
// zero and a zero line is removed.
func (s *Service) UpdateQuantity(ctx context.Context, dealerID, productRef int64, delta int) (*Cart, error) {
	if _, err := s.store.Adjust(ctx, dealerID, productRef, delta); err != nil {
		return nil, err
	}
	return s.Get(ctx, dealerID)
}

// Clear empties the dealer's cart.
func (s *Service) Clear(ctx context.Context, dealerID int64) error {
	return s.store.Clear(ctx, dealerID)
}

// Release removes the snapshotted quantities from the live cart, leaving
// anything added after the snapshot in place.
func (s *Service) Release(ctx context.Context, snap Snapshot) error {
	return s.store.Release(ctx, snap.DealerID, snap.Quantities())
}

// Get returns the cart priced at current catalog prices.
func (s *Service) Get(ctx context.Context, dealerID int64) (*Cart, error) {
	items, unavailable, err := s.lines(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	subtotal, err := pricing.Subtotal(items)
	if err != nil {
		return nil, err
	}
	return &Cart{DealerID: dealerID, Items: items, Subtotal: subtotal, Unavailable: unavailable}, nil
}

// Snapshot returns a frozen copy of the cart for checkout. A line whose
// product was deactivated fails it with ErrProductNotFound.
func (s *Service) Snapshot(ctx context.Context, dealerID int64) (Snapshot, error) {
	items, unavailable, err := s.lines(ctx, dealerID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(unavailable) > 0 {
		return Snapshot{}, fmt.Errorf("%w: %s no longer available, remove it from the cart",
			ErrProductNotFound, strings.Join(unavailable, ", "))
	}
	return Snapshot{DealerID: dealerID, Items: items, TakenAt: s.now()}, nil
}

// lines prices the active products in the cart and returns the SKUs of the
// inactive ones separately.
func (s *Service) lines(ctx context.Context, dealerID int64) ([]pricing.LineItem, []string, error) {
	quantities, err := s.store.Quantities(ctx, dealerID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]pricing.LineItem, 0, len(ids))
	var unavailable []string
	for _, id := range ids {
		product, err := s.catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
			}
			return nil, nil, fmt.Errorf("lookup product: %w", err)
		}
		if !product.IsActive {
			unavailable = append(unavailable, product.SKU)
			continue
		}
		item, err := pricing.NewLineItem(product.ID, product.SKU, product.Name, quantities[id], product.Price)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return items, unavailable, nil
}

func (s *Service) checkDealer(ctx context.Context, dealerID int64) error {
	if s.dealers == nil {
		return nil
	}
	if _, err := s.dealers.Get(ctx, dealerID); err != nil {
		return fmt.Errorf("cart owner: %w", err)
	}
	return nil
}
