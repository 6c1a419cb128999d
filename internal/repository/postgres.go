package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ownerClause returns the WHERE fragment and argument selecting a cart by its
// owner. Exactly one of user_id/session_id is non-null per row.
func ownerClause(owner domain.Actor) (string, string) {
	if owner.UserID != "" {
		return "user_id = $1", owner.UserID
	}
	return "session_id = $1", owner.SessionID
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, owner domain.Actor) (*domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	clause, arg := ownerClause(owner)

	var (
		cart       domain.Cart
		userID     *string
		sessionID  *string
		couponCode *string
		subtotal   string
		discount   string
		tax        string
		shipping   string
		total      string
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, session_id, coupon_code, currency,
		       subtotal, discount, tax, shipping, total,
		       created_at, updated_at, expires_at
		FROM carts
		WHERE `+clause+` AND expires_at > now()
	`, arg)
	err := row.Scan(
		&cart.ID, &userID, &sessionID, &couponCode, &cart.Currency,
		&subtotal, &discount, &tax, &shipping, &total,
		&cart.CreatedAt, &cart.UpdatedAt, &cart.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by owner: %w", err)
	}

	if userID != nil {
		cart.UserID = *userID
	}
	if sessionID != nil {
		cart.SessionID = *sessionID
	}
	if couponCode != nil {
		cart.CouponCode = *couponCode
	}
	for name, pair := range map[string]struct {
		src string
		dst *decimal.Decimal
	}{
		"subtotal": {subtotal, &cart.Subtotal},
		"discount": {discount, &cart.Discount},
		"tax":      {tax, &cart.Tax},
		"shipping": {shipping, &cart.Shipping},
		"total":    {total, &cart.Total},
	} {
		d, err := decimal.NewFromString(pair.src)
		if err != nil {
			return nil, fmt.Errorf("parse cart %s: %w", name, err)
		}
		*pair.dst = d
	}

	if err := r.loadItems(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, cart *domain.Cart) error {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, variant_id, quantity, unit_price, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, product_id, variant_id
	`, cart.ID)
	if err != nil {
		return fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      domain.CartItem
			unitPrice string
		)
		if err := rows.Scan(&item.ProductID, &item.VariantID, &item.Quantity, &unitPrice, &item.AddedAt); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		item.UnitPrice, err = decimal.NewFromString(unitPrice)
		if err != nil {
			return fmt.Errorf("parse unit price: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate cart items: %w", err)
	}
	return nil
}

// Save writes the whole aggregate in one transaction: upsert the carts row,
// then replace its items. Replacing instead of diffing keeps the write path
// simple and the row count per cart is small.
func (r *PostgresRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save cart: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// An expired cart is invisible to GetByOwner, so a fresh aggregate with a
	// new id may arrive while the stale row still holds the owner's unique
	// slot. Reap it here or the insert below hits the owner index.
	clause, arg := ownerClause(cart.Owner())
	_, err = tx.Exec(ctx, `DELETE FROM carts WHERE `+clause+` AND expires_at <= now() AND id <> $2`, arg, cart.ID)
	if err != nil {
		return fmt.Errorf("reap expired cart: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO carts (id, user_id, session_id, coupon_code, currency,
		                   subtotal, discount, tax, shipping, total,
		                   created_at, updated_at, expires_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5,
		        $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			coupon_code = EXCLUDED.coupon_code,
			subtotal    = EXCLUDED.subtotal,
			discount    = EXCLUDED.discount,
			tax         = EXCLUDED.tax,
			shipping    = EXCLUDED.shipping,
			total       = EXCLUDED.total,
			updated_at  = EXCLUDED.updated_at,
			expires_at  = EXCLUDED.expires_at
	`,
		cart.ID, cart.UserID, cart.SessionID, cart.CouponCode, cart.Currency,
		cart.Subtotal.String(), cart.Discount.String(), cart.Tax.String(),
		cart.Shipping.String(), cart.Total.String(),
		cart.CreatedAt, cart.UpdatedAt, cart.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	for _, item := range cart.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, unit_price, added_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, cart.ID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice.String(), item.AddedAt)
		if err != nil {
			return fmt.Errorf("insert cart item %s: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}
	return nil
}

// Delete removes the owner's cart. Items go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, owner domain.Actor) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	clause, arg := ownerClause(owner)
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE `+clause, arg)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}
