package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aamersadiq/cart-pricing/internal/cache"
	"github.com/aamersadiq/cart-pricing/internal/domain"
	"github.com/aamersadiq/cart-pricing/internal/events"
	"github.com/aamersadiq/cart-pricing/internal/pricing"
	"github.com/aamersadiq/cart-pricing/internal/repository"
)

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(env events.Envelope)
}

// CartService orchestrates the pricing engine against storage, cache and the
// event stream. All dependencies are injected; the service holds no globals.
type CartService struct {
	repo      repository.CartRepository
	cache     cache.CartCache
	engine    *pricing.Engine
	publisher EventPublisher
	name      string
	sfg       singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cartCache cache.CartCache, engine *pricing.Engine, publisher EventPublisher, name string) *CartService {
	return &CartService{
		repo:      repo,
		cache:     cartCache,
		engine:    engine,
		publisher: publisher,
		name:      name,
	}
}

// GetCart returns the owner's cart, or a fresh empty one if none exists yet.
// The empty cart is not persisted until the first mutation.
func (s *CartService) GetCart(ctx context.Context, owner domain.Actor) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(owner.Key(), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetByOwner(ctx, owner)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return domain.NewCart(owner)
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), owner, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, owner domain.Actor, productID, variantID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, owner, func(cart *domain.Cart) error {
		return s.engine.AddItem(ctx, cart, productID, variantID, quantity)
	})
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, owner domain.Actor, productID, variantID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, owner, func(cart *domain.Cart) error {
		return s.engine.UpdateItemQuantity(ctx, cart, productID, variantID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, owner domain.Actor, productID, variantID string) (*domain.Cart, error) {
	return s.mutate(ctx, owner, func(cart *domain.Cart) error {
		return s.engine.RemoveItem(ctx, cart, productID, variantID)
	})
}

func (s *CartService) ClearCart(ctx context.Context, owner domain.Actor) (*domain.Cart, error) {
	return s.mutate(ctx, owner, func(cart *domain.Cart) error {
		s.engine.ClearCart(cart)
		return nil
	})
}

// ApplyCoupon attaches a coupon to the owner's cart. The engine increments the
// coupon's usage counter before the cart is saved; if the save then fails, that
// redemption stays consumed. Redemptions are not refunded on any path, so a
// lost one only narrows an already-capped coupon.
func (s *CartService) ApplyCoupon(ctx context.Context, owner domain.Actor, code string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, owner, func(cart *domain.Cart) error {
		return s.engine.ApplyCoupon(ctx, cart, code)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewEnvelope(events.EventCouponRedeemed, s.name, cart.ID, events.CouponRedeemedPayload{
		CartID:     cart.ID,
		CouponCode: cart.CouponCode,
		Owner:      owner.Key(),
		Discount:   cart.Discount.String(),
	}))
	return cart, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, owner domain.Actor) (*domain.Cart, error) {
	return s.mutate(ctx, owner, func(cart *domain.Cart) error {
		s.engine.RemoveCoupon(cart)
		return nil
	})
}

// mutate loads the owner's aggregate (creating one on first touch), applies
// the change, persists the whole aggregate and invalidates the cache.
func (s *CartService) mutate(ctx context.Context, owner domain.Actor, fn func(cart *domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.repo.GetByOwner(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart, err = domain.NewCart(owner)
	}
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		log.Printf("repo save cart error: %v", err)
		return nil, err
	}

	s.invalidateCache(owner)
	s.publish(events.NewEnvelope(events.EventCartPriced, s.name, cart.ID, events.CartPricedPayload{
		CartID:   cart.ID,
		Owner:    owner.Key(),
		Subtotal: cart.Subtotal.String(),
		Discount: cart.Discount.String(),
		Tax:      cart.Tax.String(),
		Shipping: cart.Shipping.String(),
		Total:    cart.Total.String(),
	}))
	return cart, nil
}

func (s *CartService) publish(env events.Envelope) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(env)
}

func (s *CartService) invalidateCache(owner domain.Actor) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
