// Package pricing computes order totals and discounts in whole currency units.
package pricing

import (
	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// AllowedDiscounts are the discount steps accepted on an order.
var AllowedDiscounts = []int{0, 10, 20, 30, 40, 50}

var hundred = decimal.NewFromInt(100)

// LineTotal returns price × qty for one line.
func LineTotal(line models.OrderLine) int64 {
	return line.Price * int64(line.Qty)
}

// OrderTotal sums the line totals.
func OrderTotal(lines []models.OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += LineTotal(l)
	}
	return total
}

// NetTotal applies a percentage discount and rounds to the nearest unit,
// halves away from zero. Percentages outside 0..100 are clamped.
func NetTotal(total int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return total
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	t := decimal.NewFromInt(total)
	off := t.Mul(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return t.Sub(off).Round(0).IntPart()
}

// IsAllowedDiscount reports whether pct is one of AllowedDiscounts.
func IsAllowedDiscount(pct int) bool {
	for _, d := range AllowedDiscounts {
		if d == pct {
			return true
		}
	}
	return false
}
