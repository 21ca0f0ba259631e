package calculation

import (
	"github.com/shopspring/decimal"

	"go-payroll/internal/shared/money"
)

// TaxStrategy is the statutory extension point. The engine hands it the sum
// of taxable earnings for the period; the strategy applies exemptions and
// returns the taxable income alongside the tax to withhold. Actual tax-table
// content is owned by whoever implements this.
type TaxStrategy interface {
	Assess(taxableEarnings int64) (taxableIncome int64, tax int64)
}

// FlatRateStrategy withholds a flat percentage of taxable earnings above a
// monthly exemption. It is the default wiring, not a statutory table.
type FlatRateStrategy struct {
	MonthlyExemption int64
	Rate             decimal.Decimal // percent, e.g. 10 for 10%
}

func NewFlatRateStrategy(monthlyExemption int64, rate decimal.Decimal) FlatRateStrategy {
	return FlatRateStrategy{
		MonthlyExemption: monthlyExemption,
		Rate:             rate,
	}
}

func (s FlatRateStrategy) Assess(taxableEarnings int64) (int64, int64) {
	taxableIncome := taxableEarnings - s.MonthlyExemption
	if taxableIncome < 0 {
		taxableIncome = 0
	}
	return taxableIncome, money.PercentOf(taxableIncome, s.Rate)
}

// NoTaxStrategy assesses zero tax; used in tests and for companies whose
// withholding happens outside the engine.
type NoTaxStrategy struct{}

func (NoTaxStrategy) Assess(taxableEarnings int64) (int64, int64) {
	return taxableEarnings, 0
}
