package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNoOwner = errors.New("cart must be owned by exactly one of user or session")

// Actor identifies who a request acts on behalf of: an authenticated user or
// an anonymous session. Exactly one of UserID/SessionID is set.
type Actor struct {
	UserID    string
	SessionID string
	Admin     bool
}

func (a Actor) Validate() error {
	if (a.UserID == "") == (a.SessionID == "") {
		return ErrNoOwner
	}
	return nil
}

// Key returns a stable identifier usable as a cache key component.
func (a Actor) Key() string {
	if a.UserID != "" {
		return "u:" + a.UserID
	}
	return "s:" + a.SessionID
}

type CartItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the aggregate the pricing engine operates on. The four derived
// fields (Subtotal, Discount, Tax, Shipping) and Total are recomputed
// synchronously on every mutation and are never stored stale.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Items     []CartItem `json:"items"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`

	CouponCode string `json:"coupon_code,omitempty"`
	Currency   string `json:"currency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DefaultCartTTL bounds how long an untouched cart survives before the store
// may reap it.
const DefaultCartTTL = 90 * 24 * time.Hour

func NewCart(owner Actor) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Cart{
		ID:        uuid.NewString(),
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultCartTTL),
	}, nil
}

// Owner reconstructs the owning actor from the persisted columns.
func (c *Cart) Owner() Actor {
	return Actor{UserID: c.UserID, SessionID: c.SessionID}
}

// Item returns the cart item for (productID, variantID), or nil. At most one
// item exists per tuple.
func (c *Cart) Item(productID, variantID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops the item for (productID, variantID). It reports whether an
// item was removed.
func (c *Cart) RemoveItem(productID, variantID string) bool {
	for i, it := range c.Items {
		if it.ProductID == productID && it.VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}
