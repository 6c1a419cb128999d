package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerLookup wraps a PriceLookup with a circuit breaker so a struggling
// catalog does not stall every cart mutation behind it.
type BreakerLookup struct {
	next PriceLookup
	cb   *gobreaker.CircuitBreaker[Price]
}

func NewBreakerLookup(next PriceLookup) *BreakerLookup {
	cb := gobreaker.NewCircuitBreaker[Price](gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing product is a valid answer, not a catalog outage.
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	})
	return &BreakerLookup{next: next, cb: cb}
}

func (b *BreakerLookup) Price(ctx context.Context, productID, variantID string) (Price, error) {
	return b.cb.Execute(func() (Price, error) {
		return b.next.Price(ctx, productID, variantID)
	})
}
