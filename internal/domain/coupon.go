package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "PERCENTAGE"
	DiscountFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountFreeShipping DiscountType = "FREE_SHIPPING"
)

// Coupon is created by an administrative actor and, from the pricing engine's
// point of view, mutated only through its usage counter.
type Coupon struct {
	ID    string          `json:"id"`
	Code  string          `json:"code"`
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`

	MinimumPurchase decimal.Decimal `json:"minimum_purchase"` // zero means no threshold
	MaximumDiscount decimal.Decimal `json:"maximum_discount"` // zero means no cap

	UsageLimit int `json:"usage_limit"` // zero means unlimited
	UsageCount int `json:"usage_count"`

	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Active   bool      `json:"active"`
}

// Redeemable reports whether the coupon can be applied at t. It does not
// consider the usage limit; that check belongs to the store's atomic
// increment.
func (c *Coupon) Redeemable(t time.Time) bool {
	if !c.Active {
		return false
	}
	if t.Before(c.StartsAt) || t.After(c.EndsAt) {
		return false
	}
	return true
}

// Exhausted reports whether the usage counter already reached the limit.
// This is the optimistic read-side check; the authoritative one happens at
// increment time.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}
