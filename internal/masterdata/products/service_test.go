package products

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/shared"
	common "github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type mockRepository struct {
	mu       sync.Mutex
	products map[int64]Product
	nextID   int64
	lastList shared.ListFilters
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[int64]Product), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = filters
	var out []Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) GetBySKU(ctx context.Context, sku string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, product Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU == product.SKU {
			return Product{}, shared.ErrDuplicate
		}
	}
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return product, nil
}

func (m *mockRepository) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Price = price
	m.products[id] = p
	return nil
}

func TestServiceCreateAndLookupBySKU(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{SKU: " WID-1 ", Name: "Widget", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Equal(t, "WID-1", created.SKU)
	assert.True(t, created.IsActive)

	found, err := svc.GetBySKU(ctx, "WID-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetBySKU(ctx, "NOPE")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestServiceCreateValidates(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{SKU: "", Name: "x", Price: decimal.Zero})
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = svc.Create(ctx, CreateRequest{SKU: "A", Name: "x", Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestServiceInactiveProductIsNotOrderable(t *testing.T) {
	repo := newMockRepository()
	repo.products[7] = Product{ID: 7, SKU: "OLD", Name: "Old", IsActive: false}
	svc := NewService(repo)

	_, err := svc.GetBySKU(context.Background(), "OLD")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestServiceUpdatePrice(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateRequest{SKU: "A", Name: "A", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	updated, err := svc.UpdatePrice(ctx, p.ID, decimal.NewFromInt(12))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(updated.Price))

	_, err = svc.UpdatePrice(ctx, p.ID, decimal.NewFromInt(-5))
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = svc.UpdatePrice(ctx, 999, decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestServiceListNormalizesFilters(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, _, err := svc.List(context.Background(), shared.ListFilters{SortBy: "price", SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, shared.DefaultLimit, repo.lastList.Limit)
	assert.Equal(t, shared.DefaultPage, repo.lastList.Page)
	assert.Equal(t, "price", repo.lastList.SortBy)
	assert.Equal(t, shared.SortDesc, repo.lastList.SortDir)

	_, _, err = svc.List(context.Background(), shared.ListFilters{SortBy: "cost"})
	assert.ErrorIs(t, err, common.ErrValidation)
}
