package coupon

import (
	"context"
	"errors"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

var (
	ErrNotFound = errors.New("coupon not found")

	// ErrLimitReached is returned by IncrementUsage when the atomic
	// increment finds the usage limit already consumed, regardless of what
	// an earlier read suggested.
	ErrLimitReached = errors.New("coupon usage limit reached")
)

// Store is the external coupon collaborator. IncrementUsage must perform the
// limit check and the increment in one atomic step; concurrent redemptions of
// a limited code must not oversell it.
type Store interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	IncrementUsage(ctx context.Context, couponID string) error
}
