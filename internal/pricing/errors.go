package pricing

import "errors"

var (
	ErrInvalidQuantity       = errors.New("quantity must be greater than 0")
	ErrItemNotFound          = errors.New("item not found in cart")
	ErrCouponExpired         = errors.New("coupon is inactive or outside its active window")
	ErrMinimumPurchaseNotMet = errors.New("cart subtotal below coupon minimum purchase")
)
