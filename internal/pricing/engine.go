package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aamersadiq/cart-pricing/internal/catalog"
	"github.com/aamersadiq/cart-pricing/internal/coupon"
	"github.com/aamersadiq/cart-pricing/internal/domain"
)

// Engine owns cart-item mutation, coupon application and total recomputation.
// It performs no locking and no persistence; the cart aggregate it mutates is
// saved by the caller, and atomicity of shared-state writes (the coupon usage
// counter, per-cart upserts) is the data layer's job.
type Engine struct {
	catalog catalog.PriceLookup
	coupons coupon.Store
	cfg     Config
	now     func() time.Time
}

func NewEngine(catalog catalog.PriceLookup, coupons coupon.Store, cfg Config) *Engine {
	return &Engine{
		catalog: catalog,
		coupons: coupons,
		cfg:     cfg,
		now:     time.Now,
	}
}

// AddItem puts quantity units of (productID, variantID) into the cart. If the
// tuple is already present its quantity is incremented and the captured unit
// price is kept; otherwise the current catalog price is captured so the line
// stays stable for the cart's lifetime.
func (e *Engine) AddItem(ctx context.Context, cart *domain.Cart, productID, variantID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if item := cart.Item(productID, variantID); item != nil {
		item.Quantity += quantity
		return e.recomputeTotals(ctx, cart)
	}

	price, err := e.catalog.Price(ctx, productID, variantID)
	if err != nil {
		return err
	}
	cart.Items = append(cart.Items, domain.CartItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: price.Amount,
		AddedAt:   e.now(),
	})
	return e.recomputeTotals(ctx, cart)
}

// UpdateItemQuantity sets the quantity of an existing item. The line total is
// recomputed from the already-captured unit price; the catalog is not
// consulted again. Use RemoveItem to delete.
func (e *Engine) UpdateItemQuantity(ctx context.Context, cart *domain.Cart, productID, variantID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	item := cart.Item(productID, variantID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Quantity = quantity
	return e.recomputeTotals(ctx, cart)
}

// RemoveItem deletes the item unconditionally.
func (e *Engine) RemoveItem(ctx context.Context, cart *domain.Cart, productID, variantID string) error {
	if !cart.RemoveItem(productID, variantID) {
		return ErrItemNotFound
	}
	return e.recomputeTotals(ctx, cart)
}

// ClearCart drops all items, clears any applied coupon and zeroes every
// derived field.
func (e *Engine) ClearCart(cart *domain.Cart) {
	cart.Items = nil
	cart.CouponCode = ""
	e.recompute(cart, nil)
}

// ApplyCoupon validates code against the coupon store and, on success,
// consumes one redemption and stores the code on the cart. Re-applying a
// different code replaces the current one and still consumes a redemption on
// the new coupon. The usage limit is checked optimistically here and
// authoritatively inside the store's atomic increment; a failed increment
// surfaces as coupon.ErrLimitReached, not a fatal error.
func (e *Engine) ApplyCoupon(ctx context.Context, cart *domain.Cart, code string) error {
	c, err := e.coupons.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !c.Redeemable(e.now()) {
		return ErrCouponExpired
	}
	if c.Exhausted() {
		return coupon.ErrLimitReached
	}
	if c.MinimumPurchase.IsPositive() && cart.Subtotal.LessThan(c.MinimumPurchase) {
		return ErrMinimumPurchaseNotMet
	}

	if err := e.coupons.IncrementUsage(ctx, c.ID); err != nil {
		return err
	}

	cart.CouponCode = c.Code
	e.recompute(cart, c)
	return nil
}

// RemoveCoupon clears the applied coupon and its discount. The redemption is
// treated as consumed: the usage counter is deliberately not decremented.
func (e *Engine) RemoveCoupon(cart *domain.Cart) {
	cart.CouponCode = ""
	e.recompute(cart, nil)
}

// recomputeTotals resolves the cart's applied coupon, if any, and recomputes
// the derived fields. A coupon that has disappeared from the store since it
// was applied is dropped rather than priced against missing data.
func (e *Engine) recomputeTotals(ctx context.Context, cart *domain.Cart) error {
	var c *domain.Coupon
	if cart.CouponCode != "" {
		found, err := e.coupons.FindByCode(ctx, cart.CouponCode)
		switch {
		case errors.Is(err, coupon.ErrNotFound):
			cart.CouponCode = ""
		case err != nil:
			return fmt.Errorf("failed to resolve applied coupon: %w", err)
		default:
			c = found
		}
	}
	e.recompute(cart, c)
	return nil
}

// recompute writes the four derived fields and the total; nothing else. The
// discount is derived fresh from the current subtotal each time, so item
// changes after a percentage coupon was applied rescale it.
func (e *Engine) recompute(cart *domain.Cart, c *domain.Coupon) {
	now := e.now()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(domain.DefaultCartTTL)

	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	cart.Subtotal = subtotal

	if len(cart.Items) == 0 {
		cart.Discount = decimal.Zero
		cart.Tax = decimal.Zero
		cart.Shipping = decimal.Zero
		cart.Total = decimal.Zero
		return
	}

	shipping := e.cfg.ShippingFee
	if subtotal.GreaterThan(e.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	if c != nil && c.Type == domain.DiscountFreeShipping {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if c != nil {
		discount = discountFor(c, subtotal, shipping)
	}

	tax := subtotal.Sub(discount).Mul(e.cfg.TaxRate).Round(2)

	cart.Discount = discount
	cart.Shipping = shipping
	cart.Tax = tax
	cart.Total = subtotal.Sub(discount).Add(tax).Add(shipping)
}

// discountFor returns the discount line for a coupon. The shipping argument is
// the already-recomputed charge: for a free-shipping coupon the waiver happens
// in recompute, so this returns the (now zero) shipping rather than the waived
// amount. The discount line therefore reads 0 for free shipping; the benefit
// shows up as Shipping = 0, never counted twice.
func discountFor(c *domain.Coupon, subtotal, shipping decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case domain.DiscountPercentage:
		d := subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaximumDiscount.IsPositive() && d.GreaterThan(c.MaximumDiscount) {
			return c.MaximumDiscount
		}
		return d
	case domain.DiscountFixedAmount:
		// A fixed discount never exceeds what the items are worth.
		if c.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return c.Value
	case domain.DiscountFreeShipping:
		// Shipping is already waived above; the discount line mirrors the
		// shipping charge so the total identity stays intact.
		return shipping
	default:
		return decimal.Zero
	}
}
