package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error taxonomy shared by every document module. Module errors wrap one of
// these so the HTTP layer can map them without knowing the module.
var (
	// ErrNotFound indicates a product, dealer or document is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates an operation attempted outside its legal source state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidTransition indicates a status change that is not on the allowed path.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrExpired indicates a quotation past its validity window.
	ErrExpired = errors.New("expired")
	// ErrValidation indicates malformed input such as a non-positive quantity.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a concurrent request holds the same idempotency key.
	ErrConflict = errors.New("conflict")
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
