package numbering

import (
	"context"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
)

// PostgresSequencer keeps counters in document_sequences. Inside a document
// transaction the upsert runs on that transaction, so the counter row stays
// locked until commit and a rolled back document does not consume a number.
type PostgresSequencer struct {
	db db.DBTX
}

// NewPostgresSequencer constructs the sequencer. conn is used only when the
// context carries no transaction.
func NewPostgresSequencer(conn db.DBTX) *PostgresSequencer {
	return &PostgresSequencer{db: conn}
}

// Next increments and returns the counter.
func (s *PostgresSequencer) Next(ctx context.Context, prefix string, year int) (int64, error) {
	const query = `
		INSERT INTO document_sequences (prefix, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value
	`
	var value int64
	if err := db.Querier(ctx, s.db).QueryRow(ctx, query, prefix, year).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
