// Package export renders delivery notes for printing.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-b2b/web"
)

const noteTemplate = "templates/documents/delivery_note.html"

// NotePayload is the data printed on a delivery note.
type NotePayload struct {
	Number              string
	PurchaseOrderNumber string
	DealerName          string
	DealerCode          string
	DealerReference     string
	ShippingAddress     string
	GeneratedAt         time.Time
	Lines               []NoteLine
	Subtotal            decimal.Decimal
	Discount            decimal.Decimal
	Total               decimal.Decimal
}

// NoteLine is one printed row.
type NoteLine struct {
	No        int
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// PDFConverter turns HTML into PDF bytes.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// NoteRenderer renders delivery notes through the embedded template.
type NoteRenderer struct {
	converter PDFConverter
	tpl       *template.Template
}

// NewNoteRenderer parses the template with amounts formatted for lang.
func NewNoteRenderer(converter PDFConverter, lang language.Tag) (*NoteRenderer, error) {
	printer := message.NewPrinter(lang)
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
		},
		"qty": func(q int) string {
			return printer.Sprintf("%d", q)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2 January 2006")
		},
	}
	tpl, err := template.New("delivery_note.html").Funcs(funcs).ParseFS(web.Templates, noteTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse delivery note template: %w", err)
	}
	return &NoteRenderer{converter: converter, tpl: tpl}, nil
}

// HTML renders the note markup.
func (r *NoteRenderer) HTML(payload NotePayload) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.ExecuteTemplate(buf, "delivery_note.html", payload); err != nil {
		return "", fmt.Errorf("render delivery note: %w", err)
	}
	return buf.String(), nil
}

// PDF renders the note and converts it to PDF.
func (r *NoteRenderer) PDF(ctx context.Context, payload NotePayload) ([]byte, error) {
	if r == nil || r.converter == nil {
		return nil, fmt.Errorf("delivery note renderer not initialized")
	}
	html, err := r.HTML(payload)
	if err != nil {
		return nil, err
	}
	return r.converter.RenderHTML(ctx, html)
}
