package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// Transition moves a purchase order to target inside tx. It is the only code
// path that writes purchase order status; the delivery order generator calls
// it from its own transaction. The linked delivery order, if any, follows
// shipped, delivered and cancelled.
func Transition(ctx context.Context, tx TxRepository, id int64, target Status, actorID int64) (*PurchaseOrder, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrBadStatus, target)
	}
	po, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: purchase order %s cannot move from %s to %s",
			shared.ErrInvalidTransition, po.Number, po.Status, target)
	}
	if err := tx.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update purchase order status: %w", err)
	}
	if mirror, ok := deliveryMirror[target]; ok {
		if err := tx.SyncDeliveryOrderStatus(ctx, id, mirror); err != nil {
			return nil, fmt.Errorf("sync delivery order status: %w", err)
		}
	}
	err = tx.RecordEvent(ctx, shared.DocumentEvent{
		Kind:       shared.KindPurchaseOrder,
		DocumentID: id,
		Action:     "status_changed",
		FromStatus: string(po.Status),
		ToStatus:   string(target),
		ActorID:    actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("record purchase order event: %w", err)
	}
	po.Status = target
	po.UpdatedAt = time.Now()
	return po, nil
}

// Place validates po, derives its totals from the items and discount, and
// inserts it with its items inside tx. Quotation acceptance and cart checkout
// both create purchase orders through it.
func Place(ctx context.Context, tx TxRepository, po PurchaseOrder, actorID int64) (*PurchaseOrder, error) {
	if po.DealerID <= 0 {
		return nil, ErrNoDealer
	}
	if len(po.Items) == 0 {
		return nil, ErrNoItems
	}
	if po.Number == "" {
		return nil, ErrNoNumber
	}
	if po.Status == "" {
		po.Status = StatusPending
	}
	if err := po.recompute(); err != nil {
		return nil, err
	}
	if actorID > 0 {
		po.CreatedBy = &actorID
	}
	id, err := tx.Create(ctx, po)
	if err != nil {
		return nil, err
	}
	po.ID = id

	meta := map[string]any{"number": po.Number, "total": po.Total.StringFixed(2)}
	if po.QuotationID != nil {
		meta["quotation_id"] = *po.QuotationID
	}
	err = tx.RecordEvent(ctx, shared.DocumentEvent{
		Kind:       shared.KindPurchaseOrder,
		DocumentID: id,
		Action:     "created",
		ToStatus:   string(po.Status),
		ActorID:    actorID,
		Meta:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("record purchase order event: %w", err)
	}
	return &po, nil
}
