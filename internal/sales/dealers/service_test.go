package dealers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type mockRepository struct {
	dealers map[int64]*Dealer
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{dealers: make(map[int64]*Dealer), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Dealer, error) {
	d, ok := m.dealers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (*Dealer, error) {
	for _, d := range m.dealers {
		if d.Code == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, dealer Dealer) (int64, error) {
	dealer.ID = m.nextID
	m.nextID++
	m.dealers[dealer.ID] = &dealer
	return dealer.ID, nil
}

func (m *mockRepository) UpdateTier(ctx context.Context, id int64, tier pricing.Tier) error {
	d, ok := m.dealers[id]
	if !ok {
		return ErrNotFound
	}
	d.Tier = tier
	return nil
}

func TestCreateDefaultsToSilver(t *testing.T) {
	svc := NewService(newMockRepository())

	d, err := svc.Create(context.Background(), CreateDealerRequest{Code: "D-1", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, pricing.TierSilver, d.Tier)
	assert.Equal(t, DefaultPaymentTermsDays, d.Terms())
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDealerRequest{Code: "D-1", Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateDealerRequest{Code: "D-1", Name: "Other"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestUpdateTier(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	d, err := svc.Create(ctx, CreateDealerRequest{Code: "D-1", Name: "Acme", PaymentTermsDays: 45})
	require.NoError(t, err)
	assert.Equal(t, 45, d.Terms())

	d, err = svc.UpdateTier(ctx, d.ID, pricing.TierPlatinum)
	require.NoError(t, err)
	assert.Equal(t, pricing.TierPlatinum, d.Tier)

	_, err = svc.UpdateTier(ctx, d.ID, pricing.Tier("diamond"))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = svc.UpdateTier(ctx, 404, pricing.TierGold)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGetHidesInactiveDealers(t *testing.T) {
	repo := newMockRepository()
	repo.dealers[5] = &Dealer{ID: 5, Code: "X", IsActive: false, Tier: pricing.TierGold}
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 5)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
