// Package numbering issues human-readable document numbers such as
// PO-2026-0041. Sequences are per (prefix, year) and come from an atomic
// increment in the backing store.
package numbering

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Document prefixes.
const (
	PrefixQuotation     = "QUO"
	PrefixPurchaseOrder = "PO"
	PrefixDeliveryOrder = "DO"
	PrefixInvoice       = "INV"
)

// Sequencer atomically increments and returns the counter for prefix/year.
type Sequencer interface {
	Next(ctx context.Context, prefix string, year int) (int64, error)
}

// Generator is the interface consumed by document services.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// Service formats sequence values into document numbers.
type Service struct {
	seq Sequencer
	now func() time.Time
}

// NewService creates a numbering service backed by seq.
func NewService(seq Sequencer) *Service {
	return &Service{seq: seq, now: time.Now}
}

// WithClock overrides the time source used to pick the year.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Next returns the next number for prefix in the current UTC year.
func (s *Service) Next(ctx context.Context, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("numbering: prefix required")
	}
	year := s.now().UTC().Year()
	n, err := s.seq.Next(ctx, prefix, year)
	if err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", prefix, err)
	}
	return Format(prefix, year, n), nil
}

// Format renders a document number. The sequence is zero padded to four
// digits and grows past 9999 without truncation.
func Format(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
