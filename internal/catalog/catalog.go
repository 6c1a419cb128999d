package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Price is the catalog's answer for one (product, variant) pair.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// PriceLookup is the external catalog collaborator. variantID is empty for
// products without variants.
type PriceLookup interface {
	Price(ctx context.Context, productID, variantID string) (Price, error)
}
