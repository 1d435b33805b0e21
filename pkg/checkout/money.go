package checkout

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineSubtotal is unit price times quantity.
func LineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// PercentageDiscount computes subtotal × percent/100, capped when a cap is set.
func PercentageDiscount(subtotal, percent decimal.Decimal, cap decimal.NullDecimal) decimal.Decimal {
	discount := subtotal.Mul(percent).Div(hundred).Round(2)
	if cap.Valid && discount.GreaterThan(cap.Decimal) {
		return cap.Decimal
	}
	return discount
}

// ApplyDiscount returns subtotal minus discount, never below zero.
func ApplyDiscount(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Commission is total × rate rounded to cents.
func Commission(total, rate decimal.Decimal) decimal.Decimal {
	return total.Mul(rate).Round(2)
}

// AmountsMatch reports whether a and b differ by no more than tolerance.
func AmountsMatch(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
