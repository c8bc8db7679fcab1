package dealers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns an active dealer.
func (s *Service) Get(ctx context.Context, id int64) (*Dealer, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, fmt.Errorf("%w: dealer %d is inactive", ErrNotFound, id)
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, req CreateDealerRequest) (*Dealer, error) {
	code := strings.TrimSpace(req.Code)
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing dealer: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	tier := req.Tier
	if tier == "" {
		tier = pricing.TierSilver
	}
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: unknown tier %q", shared.ErrValidation, tier)
	}

	dealer := Dealer{
		Code:             code,
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		Tier:             tier,
		PaymentTermsDays: req.PaymentTermsDays,
		ShippingAddress:  req.ShippingAddress,
		IsActive:         true,
	}
	dealer.PaymentTermsDays = dealer.Terms()
	id, err := s.repo.Create(ctx, dealer)
	if err != nil {
		return nil, fmt.Errorf("create dealer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// UpdateTier changes the dealer's loyalty tier. Orders already placed keep
// the discount computed at checkout.
func (s *Service) UpdateTier(ctx context.Context, id int64, tier pricing.Tier) (*Dealer, error) {
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: unknown tier %q", shared.ErrValidation, tier)
	}
	if err := s.repo.UpdateTier(ctx, id, tier); err != nil {
		return nil, fmt.Errorf("update dealer tier: %w", err)
	}
	return s.repo.Get(ctx, id)
}
