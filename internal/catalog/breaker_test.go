package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLookup struct {
	err   error
	calls int
}

func (f *flakyLookup) Price(context.Context, string, string) (Price, error) {
	f.calls++
	if f.err != nil {
		return Price{}, f.err
	}
	return Price{Amount: decimal.RequireFromString("9.99"), Currency: "USD"}, nil
}

func TestBreakerLookup_PassesThrough(t *testing.T) {
	next := &flakyLookup{}
	b := NewBreakerLookup(next)

	p, err := b.Price(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("9.99")))
}

func TestBreakerLookup_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyLookup{err: errors.New("catalog down")}
	b := NewBreakerLookup(next)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.Price(ctx, "p1", "")
		require.Error(t, err)
	}

	_, err := b.Price(ctx, "p1", "")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, next.calls, "open breaker must not reach the catalog")
}

func TestBreakerLookup_NotFoundDoesNotTrip(t *testing.T) {
	next := &flakyLookup{err: ErrProductNotFound}
	b := NewBreakerLookup(next)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := b.Price(ctx, "missing", "")
		assert.ErrorIs(t, err, ErrProductNotFound)
	}
	assert.Equal(t, 10, next.calls)
}

func TestBreakerLookup_WrappedNotFoundDoesNotTrip(t *testing.T) {
	next := &flakyLookup{err: fmt.Errorf("lookup p1: %w", ErrProductNotFound)}
	b := NewBreakerLookup(next)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := b.Price(ctx, "missing", "")
		assert.ErrorIs(t, err, ErrProductNotFound)
	}
	assert.Equal(t, 10, next.calls)
}
