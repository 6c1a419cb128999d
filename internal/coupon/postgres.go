package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

// DBPool matches the methods from *pgxpool.Pool that the store uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	pool DBPool
}

func NewPostgresStore(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, code, discount_type, value, minimum_purchase, maximum_discount,
		       usage_limit, usage_count, starts_at, ends_at, active
		FROM coupons WHERE code = $1`, code)

	var c domain.Coupon
	var value, minP, maxD string
	err := row.Scan(&c.ID, &c.Code, &c.Type, &value, &minP, &maxD,
		&c.UsageLimit, &c.UsageCount, &c.StartsAt, &c.EndsAt, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	if c.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("invalid coupon value: %w", err)
	}
	if c.MinimumPurchase, err = decimal.NewFromString(minP); err != nil {
		return nil, fmt.Errorf("invalid minimum purchase: %w", err)
	}
	if c.MaximumDiscount, err = decimal.NewFromString(maxD); err != nil {
		return nil, fmt.Errorf("invalid maximum discount: %w", err)
	}
	return &c, nil
}

// IncrementUsage consumes one redemption. The limit is re-verified inside the
// UPDATE itself, so two concurrent redemptions of a one-use code cannot both
// succeed.
func (s *PostgresStore) IncrementUsage(ctx context.Context, couponID string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE coupons SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)`,
		couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLimitReached
	}
	return nil
}
