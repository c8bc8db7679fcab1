package dealers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("%w: dealer", shared.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("%w: dealer code already exists", shared.ErrConflict)
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Dealer, error)
	GetByCode(ctx context.Context, code string) (*Dealer, error)
	Create(ctx context.Context, dealer Dealer) (int64, error)
	UpdateTier(ctx context.Context, id int64, tier pricing.Tier) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const dealerColumns = `id, code, name, email, tier, payment_terms_days, shipping_address, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Dealer, error) {
	return scanDealer(r.pool.QueryRow(ctx, `SELECT `+dealerColumns+` FROM dealers WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Dealer, error) {
	return scanDealer(r.pool.QueryRow(ctx, `SELECT `+dealerColumns+` FROM dealers WHERE code = $1`, code))
}

func (r *repository) Create(ctx context.Context, d Dealer) (int64, error) {
	query := `
		INSERT INTO dealers (code, name, email, tier, payment_terms_days, shipping_address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, d.Code, d.Name, d.Email, d.Tier, d.PaymentTermsDays, d.ShippingAddress, d.IsActive).Scan(&id)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateTier(ctx context.Context, id int64, tier pricing.Tier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dealers SET tier = $1, updated_at = $2 WHERE id = $3`, tier, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDealer(row pgx.Row) (*Dealer, error) {
	var d Dealer
	err := row.Scan(&d.ID, &d.Code, &d.Name, &d.Email, &d.Tier, &d.PaymentTermsDays,
		&d.ShippingAddress, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
