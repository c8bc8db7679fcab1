package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Document kinds recorded in the audit trail.
const (
	KindQuotation     = "quotation"
	KindPurchaseOrder = "purchase_order"
	KindDeliveryOrder = "delivery_order"
	KindInvoice       = "invoice"
)

// Execer is satisfied by pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DocumentEvent represents a record stored in document_events.
type DocumentEvent struct {
	Kind       string
	DocumentID int64
	Action     string
	FromStatus string
	ToStatus   string
	ActorID    int64
	Meta       map[string]any
	At         time.Time
}

// RecordEvent persists the event through db, which is normally the open
// transaction that performed the change.
func RecordEvent(ctx context.Context, db Execer, ev DocumentEvent) error {
	if db == nil {
		return errors.New("audit: no database handle")
	}
	if ev.Kind == "" || ev.Action == "" || ev.DocumentID == 0 {
		return errors.New("audit: event requires kind/action/document_id")
	}
	metaJSON, err := json.Marshal(ev.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !ev.At.IsZero() {
		at = &ev.At
	}
	var actor *int64
	if ev.ActorID > 0 {
		actor = &ev.ActorID
	}
	_, err = db.Exec(ctx, `
		INSERT INTO document_events (kind, document_id, action, from_status, to_status, actor_id, meta, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, COALESCE($8, NOW()))`,
		ev.Kind, ev.DocumentID, ev.Action, ev.FromStatus, ev.ToStatus, actor, metaJSON, at)
	return err
}
