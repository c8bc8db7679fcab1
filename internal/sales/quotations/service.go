package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// Catalog resolves quoted products.
type Catalog interface {
	GetBySKU(ctx context.Context, sku string) (products.Product, error)
}

// DealerDirectory confirms the quoted dealer exists.
type DealerDirectory interface {
	Get(ctx context.Context, id int64) (*dealers.Dealer, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
	dealers DealerDirectory
	numbers numbering.Generator
	logger  *slog.Logger
	metrics shared.DocumentRecorder
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog, dealerDir DealerDirectory, numbers numbering.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		dealers: dealerDir,
		numbers: numbers,
		logger:  logger,
		metrics: shared.NopRecorder{},
		now:     time.Now,
	}
}

func (s *Service) WithMetrics(m shared.DocumentRecorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create prices the requested items with a flat discount and stores the
// quotation as draft, or as sent when req.Send is set.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Quotation, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: quotation requires at least one item", shared.ErrValidation)
	}
	if _, err := s.dealers.Get(ctx, req.DealerID); err != nil {
		return nil, fmt.Errorf("quoted dealer: %w", err)
	}

	items := make([]pricing.LineItem, 0, len(req.Items))
	for _, itemReq := range req.Items {
		product, err := s.catalog.GetBySKU(ctx, strings.TrimSpace(itemReq.SKU))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) {
				return nil, fmt.Errorf("%w: sku %q", ErrUnknownProduct, itemReq.SKU)
			}
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		price := product.Price
		if itemReq.UnitPrice != nil {
			price = *itemReq.UnitPrice
		}
		item, err := pricing.NewLineItem(product.ID, product.SKU, product.Name, itemReq.Quantity, price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	totals, err := pricing.ComputeFlat(items, req.Discount)
	if err != nil {
		return nil, err
	}

	validity := req.ValidityDays
	if validity <= 0 {
		validity = DefaultValidityDays
	}
	now := s.now()
	quote := Quotation{
		DealerID:     req.DealerID,
		Status:       StatusDraft,
		Items:        items,
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Total:        totals.Total,
		ValidityDays: validity,
		ExpiresAt:    now.AddDate(0, 0, validity),
		Notes:        req.Notes,
		Terms:        req.Terms,
	}
	if req.Send {
		quote.Status = StatusSent
		quote.SentAt = &now
	}
	actorID := shared.ActorFromContext(ctx)
	if actorID > 0 {
		quote.CreatedBy = &actorID
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := s.numbers.Next(ctx, numbering.PrefixQuotation)
		if err != nil {
			return fmt.Errorf("allocate quotation number: %w", err)
		}
		quote.Number = number
		id, err := tx.Create(ctx, quote)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quote.ID = id
		return tx.RecordEvent(ctx, shared.DocumentEvent{
			Kind:       shared.KindQuotation,
			DocumentID: id,
			Action:     "created",
			ToStatus:   string(quote.Status),
			ActorID:    actorID,
			Meta:       map[string]any{"number": number, "total": quote.Total.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Created(shared.KindQuotation)
	return s.repo.Get(ctx, quote.ID)
}

// Send moves a draft quotation to sent, making it visible to the dealer.
func (s *Service) Send(ctx context.Context, id int64) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		quote, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if quote.Status != StatusDraft {
			return fmt.Errorf("%w: quotation %s is %s, only draft can be sent", shared.ErrInvalidState, quote.Number, quote.Status)
		}
		return s.setStatus(ctx, tx, quote, StatusSent, "sent")
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transitioned(shared.KindQuotation, string(StatusSent))
	return s.repo.Get(ctx, id)
}

// Accept turns a sent quotation into a pending purchase order carrying the
// quoted items and amounts unchanged. Accepting an accepted quotation
// returns the purchase order it already produced.
func (s *Service) Accept(ctx context.Context, id int64, req AcceptRequest) (*orders.PurchaseOrder, error) {
	var (
		po     *orders.PurchaseOrder
		reused bool
	)
	actorID := shared.ActorFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		quote, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch quote.Status {
		case StatusAccepted:
			po, err = tx.Orders().GetByQuotationID(ctx, id)
			reused = true
			return err
		case StatusSent:
		default:
			return fmt.Errorf("%w: quotation %s is %s, only sent can be accepted", shared.ErrInvalidState, quote.Number, quote.Status)
		}
		if quote.IsExpired(s.now()) {
			return fmt.Errorf("%w: %s expired at %s", ErrExpired, quote.Number, quote.ExpiresAt.Format(time.RFC3339))
		}

		number, err := s.numbers.Next(ctx, numbering.PrefixPurchaseOrder)
		if err != nil {
			return fmt.Errorf("allocate purchase order number: %w", err)
		}
		po, err = orders.Place(ctx, tx.Orders(), orders.PurchaseOrder{
			Number:          number,
			DealerID:        quote.DealerID,
			QuotationID:     &quote.ID,
			Status:          orders.StatusPending,
			Items:           quote.Items,
			Discount:        quote.Discount,
			DealerReference: req.DealerReference,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		}, actorID)
		if err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		return s.setStatus(ctx, tx, quote, StatusAccepted, "accepted")
	})
	if err != nil {
		return nil, err
	}
	if reused {
		s.metrics.Reused(shared.KindPurchaseOrder)
		return po, nil
	}
	s.metrics.Transitioned(shared.KindQuotation, string(StatusAccepted))
	s.metrics.Created(shared.KindPurchaseOrder)
	s.logger.Info("quotation accepted",
		slog.Int64("quotation_id", id),
		slog.String("purchase_order", po.Number),
		slog.String("total", po.Total.StringFixed(2)))
	return po, nil
}

// Reject declines a sent quotation. Rejecting a rejected quotation succeeds
// without change.
func (s *Service) Reject(ctx context.Context, id int64) (*Quotation, error) {
	changed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		quote, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch quote.Status {
		case StatusRejected:
			return nil
		case StatusSent:
			changed = true
			return s.setStatus(ctx, tx, quote, StatusRejected, "rejected")
		default:
			return fmt.Errorf("%w: quotation %s is %s, only sent can be rejected", shared.ErrInvalidState, quote.Number, quote.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.Transitioned(shared.KindQuotation, string(StatusRejected))
	}
	return s.repo.Get(ctx, id)
}

// ExpireStale marks sent quotations past their validity as expired and
// returns how many changed.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	var expired []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		expired, err = tx.ExpireSent(ctx, now)
		if err != nil {
			return err
		}
		for _, id := range expired {
			err := tx.RecordEvent(ctx, shared.DocumentEvent{
				Kind:       shared.KindQuotation,
				DocumentID: id,
				Action:     "expired",
				FromStatus: string(StatusSent),
				ToStatus:   string(StatusExpired),
				At:         now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for range expired {
		s.metrics.Transitioned(shared.KindQuotation, string(StatusExpired))
	}
	return len(expired), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Quotation, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown quotation status %q", shared.ErrValidation, *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// ListForDealer returns the dealer's quotations without drafts.
func (s *Service) ListForDealer(ctx context.Context, dealerID int64, page, perPage int) ([]Quotation, int, error) {
	return s.repo.List(ctx, ListFilter{DealerID: &dealerID, ExcludeDrafts: true, Page: page, PerPage: perPage})
}

func (s *Service) setStatus(ctx context.Context, tx TxRepository, quote *Quotation, target Status, action string) error {
	if !quote.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: quotation %s cannot move from %s to %s", shared.ErrInvalidTransition, quote.Number, quote.Status, target)
	}
	if err := tx.UpdateStatus(ctx, quote.ID, target, s.now()); err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	return tx.RecordEvent(ctx, shared.DocumentEvent{
		Kind:       shared.KindQuotation,
		DocumentID: quote.ID,
		Action:     action,
		FromStatus: string(quote.Status),
		ToStatus:   string(target),
		ActorID:    shared.ActorFromContext(ctx),
	})
}
