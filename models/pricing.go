package models

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// TaxRatePercent is the consumption tax applied on top of the subtotal
const TaxRatePercent = 10

// ErrPriceOverflow is returned when a total does not fit in an int64
var ErrPriceOverflow = errors.New("price overflows")

// ProductLookup resolves the current catalog entry for a product id
type ProductLookup interface {
	GetProduct(ctx context.Context, id uint) (*Product, error)
}

// Subtotal sums price × quantity over the order's lines using the current product prices
func (o *Order) Subtotal(ctx context.Context, lookup ProductLookup) (int64, error) {
	var subtotal int64
	for _, line := range o.OrderProducts {
		product, err := lookup.GetProduct(ctx, line.ProductID)
		if err != nil {
			return 0, fmt.Errorf("failed to price product %d: %w", line.ProductID, err)
		}
		amount, err := LineSubtotal(product.Price, line.Quantity)
		if err != nil {
			return 0, fmt.Errorf("failed to price product %d: %w", line.ProductID, err)
		}
		if subtotal > math.MaxInt64-amount {
			return 0, ErrPriceOverflow
		}
		subtotal += amount
	}
	return subtotal, nil
}

// LineSubtotal is price × quantity, refusing results that overflow
func LineSubtotal(price int64, quantity int) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, fmt.Errorf("negative price %d or quantity %d", price, quantity)
	}
	if quantity != 0 && price > math.MaxInt64/int64(quantity) {
		return 0, ErrPriceOverflow
	}
	return price * int64(quantity), nil
}

// TotalPrice returns the tax-inclusive total. Recomputed on every call, never stored.
func (o *Order) TotalPrice(ctx context.Context, lookup ProductLookup) (int64, error) {
	subtotal, err := o.Subtotal(ctx, lookup)
	if err != nil {
		return 0, err
	}
	if subtotal > (math.MaxInt64-99)/TaxRatePercent {
		return 0, ErrPriceOverflow
	}
	return subtotal + Tax(subtotal), nil
}

// Tax is the consumption tax on subtotal, rounded up to a whole currency unit
func Tax(subtotal int64) int64 {
	product := subtotal * TaxRatePercent
	tax := product / 100
	if product%100 > 0 {
		tax++
	}
	return tax
}
