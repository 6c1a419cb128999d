package pricing

import "github.com/shopspring/decimal"

// Config carries the flat tax and shipping policy. Both were hard-coded in
// earlier iterations of the storefront; they are injected here so the engine
// never hides a pricing constant.
type Config struct {
	// TaxRate is a flat fraction applied to (subtotal - discount), no
	// jurisdiction logic.
	TaxRate decimal.Decimal

	// FreeShippingThreshold waives the shipping fee when subtotal strictly
	// exceeds it.
	FreeShippingThreshold decimal.Decimal

	// ShippingFee is the flat fee charged below the threshold.
	ShippingFee decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.NewFromFloat(0.1),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingFee:           decimal.NewFromInt(10),
	}
}
