package cache

import (
	"context"
	"errors"

	"github.com/aamersadiq/cart-pricing/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, owner domain.Actor) (*domain.Cart, error)
	Set(ctx context.Context, owner domain.Actor, cart *domain.Cart) error
	Delete(ctx context.Context, owner domain.Actor) error
}

var ErrCacheMiss = errors.New("cache miss")
