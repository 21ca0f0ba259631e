// Package money holds the arithmetic helpers every monetary computation in
// the engine goes through. Amounts are stored as int64 in the smallest
// currency unit (cents); fractional intermediate results use
// shopspring/decimal and are rounded back to cents with banker's rounding so
// a batch of thousands of lines carries no systematic bias.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Prorate scales amount by num/den, rounding the result to cents with
// banker's rounding. A zero denominator returns zero rather than dividing.
func Prorate(amount int64, num, den int64) int64 {
	if den == 0 {
		return 0
	}
	result := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(num)).
		Div(decimal.NewFromInt(den))
	return roundToCents(result)
}

// PercentOf returns pct percent of amount in cents, banker's rounded.
func PercentOf(amount int64, pct decimal.Decimal) int64 {
	result := decimal.NewFromInt(amount).Mul(pct).Div(hundred)
	return roundToCents(result)
}

// MulRatio multiplies amount by an arbitrary decimal ratio.
func MulRatio(amount int64, ratio decimal.Decimal) int64 {
	return roundToCents(decimal.NewFromInt(amount).Mul(ratio))
}

// Ratio builds num/den as a decimal for reuse across several components of
// the same line, so every component is scaled by the identical factor.
func Ratio(num, den int64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(den))
}

// SplitEven splits total into n parts that sum exactly to total. The
// remainder cents are put on the first part, which is how loan installment
// schedules keep Σ due_amount == principal.
func SplitEven(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	remainder := total - base*int64(n)

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
	}
	parts[0] += remainder
	return parts
}

// FormatCents renders cents as a plain decimal string ("2727.27") for slips
// and logs.
func FormatCents(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// roundToCents rounds a value already expressed in cents half-to-even at
// zero decimal places.
func roundToCents(d decimal.Decimal) int64 {
	return d.RoundBank(0).IntPart()
}
