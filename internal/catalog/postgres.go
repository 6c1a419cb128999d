package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DBPool matches the methods from *pgxpool.Pool that the lookup uses, so the
// database can be mocked in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresLookup struct {
	pool DBPool
}

func NewPostgresLookup(pool DBPool) *PostgresLookup {
	return &PostgresLookup{pool: pool}
}

func (l *PostgresLookup) Price(ctx context.Context, productID, variantID string) (Price, error) {
	row := l.pool.QueryRow(ctx, `
		SELECT price, currency FROM products
		WHERE id = $1 AND variant_id = $2`, productID, variantID)

	var raw, currency string
	if err := row.Scan(&raw, &currency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Price{}, ErrProductNotFound
		}
		return Price{}, fmt.Errorf("failed to look up price: %w", err)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price for product %s: %w", productID, err)
	}
	return Price{Amount: amount, Currency: currency}, nil
}
