package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// CartRepository stores the cart aggregate. Save persists the whole
// aggregate in one transaction so a reader never observes a cart whose
// totals disagree with its items.
type CartRepository interface {
	GetByOwner(ctx context.Context, owner domain.Actor) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, owner domain.Actor) error
}
