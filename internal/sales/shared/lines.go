// Package shared holds persistence helpers common to the sales documents.
package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
)

// LineTable names an item table and the column referencing its document.
type LineTable struct {
	Table     string
	ParentCol string
}

var (
	QuotationLines     = LineTable{Table: "quotation_items", ParentCol: "quotation_id"}
	PurchaseOrderLines = LineTable{Table: "purchase_order_items", ParentCol: "purchase_order_id"}
	InvoiceLines       = LineTable{Table: "invoice_items", ParentCol: "invoice_id"}
)

// InsertLines writes items in order. line_total is a generated column, so the
// stored value always equals unit_price * quantity.
func InsertLines(ctx context.Context, q db.DBTX, t LineTable, parentID int64, items []pricing.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, line_no, product_id, sku, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.Table, t.ParentCol)
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		batch.Queue(query, parentID, i+1, item.ProductRef, item.SKU, item.Name, item.Quantity, item.UnitPrice)
	}
	return q.SendBatch(ctx, batch).Close()
}

// LoadLines reads items in line order, re-deriving each line total.
func LoadLines(ctx context.Context, q db.DBTX, t LineTable, parentID int64) ([]pricing.LineItem, error) {
	query := fmt.Sprintf(`
		SELECT product_id, sku, name, quantity, unit_price
		FROM %s
		WHERE %s = $1
		ORDER BY line_no
	`, t.Table, t.ParentCol)
	rows, err := q.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []pricing.LineItem{}
	for rows.Next() {
		var item pricing.LineItem
		if err := rows.Scan(&item.ProductRef, &item.SKU, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item.Derive())
	}
	return items, rows.Err()
}
