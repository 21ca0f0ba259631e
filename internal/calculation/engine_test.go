package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullAttendance() Attendance {
	return Attendance{WorkingDays: 22, PresentDays: 22}
}

func TestComputeLine_ProratesGrossWithBankersRounding(t *testing.T) {
	snapshot := Snapshot{
		EmployeeID:   "emp-1",
		MonthlyGross: 300000, // $3000.00
	}
	att := Attendance{WorkingDays: 22, PresentDays: 18, PaidLeaveDays: 2, UnpaidLeaveDays: 2}

	result, err := ComputeLine(snapshot, att, nil, NoTaxStrategy{})
	require.NoError(t, err)

	// 3000.00 * 20/22 = 2727.2727... rounds to 2727.27
	assert.Equal(t, int64(272727), result.GrossSalary)
	assert.Equal(t, int64(272727), result.TotalEarnings)
	assert.Equal(t, int64(272727), result.NetSalary)
}

func TestComputeLine_ZeroWorkingDays(t *testing.T) {
	_, err := ComputeLine(Snapshot{MonthlyGross: 300000}, Attendance{}, nil, NoTaxStrategy{})
	assert.ErrorIs(t, err, ErrNoWorkingDays)
}

func TestComputeLine_PercentageComponentUsesResolvedBasic(t *testing.T) {
	snapshot := Snapshot{
		MonthlyGross: 500000,
		Components: []Component{
			{
				ComponentID:     "c-pf",
				Code:            "PF",
				Name:            "Provident Fund",
				Kind:            KindDeduction,
				CalcMode:        CalcModePercentage,
				Percentage:      decimal.NewFromInt(12),
				CalculationBase: BaseBasic,
			},
			{
				ComponentID: "c-basic",
				Code:        "BASIC",
				Name:        "Basic Salary",
				Kind:        KindEarning,
				CalcMode:    CalcModeFixed,
				Amount:      300000,
				Taxable:     true,
			},
		},
	}

	result, err := ComputeLine(snapshot, fullAttendance(), nil, NoTaxStrategy{})
	require.NoError(t, err)

	// PF is listed before BASIC in the snapshot, but FIXED components
	// resolve first so the base is available.
	assert.Equal(t, int64(300000), result.TotalEarnings)
	assert.Equal(t, int64(36000), result.TotalDeductions)
	assert.Equal(t, int64(264000), result.NetSalary)
}

func TestComputeLine_FixedEarningProratedDeductionNot(t *testing.T) {
	snapshot := Snapshot{
		MonthlyGross: 300000,
		Components: []Component{
			{Code: "BASIC", Kind: KindEarning, CalcMode: CalcModeFixed, Amount: 220000, Taxable: true},
			{Code: "INSURANCE", Kind: KindDeduction, CalcMode: CalcModeFixed, Amount: 5000},
		},
	}
	att := Attendance{WorkingDays: 22, PresentDays: 11}

	result, err := ComputeLine(snapshot, att, nil, NoTaxStrategy{})
	require.NoError(t, err)

	assert.Equal(t, int64(110000), result.TotalEarnings)
	assert.Equal(t, int64(5000), result.TotalDeductions)
	assert.Equal(t, int64(105000), result.NetSalary)
}

func TestComputeLine_FoldsDueEvents(t *testing.T) {
	snapshot := Snapshot{MonthlyGross: 400000}
	events := []Event{
		{EventID: "ev-bonus", Type: EventBonus, Description: "Spot bonus", Amount: 50000},
		{EventID: "ev-loan", Type: EventLoan, Description: "Laptop loan 2/6", Amount: 20000, InstallmentID: "inst-2"},
		{EventID: "ev-reimb", Type: EventReimbursement, Description: "Travel", Amount: 12000},
	}

	result, err := ComputeLine(snapshot, fullAttendance(), events, NoTaxStrategy{})
	require.NoError(t, err)

	assert.Equal(t, int64(400000+50000+12000), result.TotalEarnings)
	assert.Equal(t, int64(20000), result.TotalDeductions)
	assert.Equal(t, result.TotalEarnings-result.TotalDeductions, result.NetSalary)

	var loanDetail *Detail
	for i := range result.Details {
		if result.Details[i].Code == "LOAN_REPAYMENT" {
			loanDetail = &result.Details[i]
		}
	}
	require.NotNil(t, loanDetail)
	assert.Equal(t, "ev-loan", loanDetail.SourceEventID)
	assert.Equal(t, "inst-2", loanDetail.InstallmentID)
}

func TestComputeLine_ReimbursementNotTaxable(t *testing.T) {
	snapshot := Snapshot{MonthlyGross: 400000}
	events := []Event{
		{EventID: "ev-reimb", Type: EventReimbursement, Description: "Travel", Amount: 50000},
	}

	result, err := ComputeLine(snapshot, fullAttendance(), events, NewFlatRateStrategy(0, decimal.NewFromInt(10)))
	require.NoError(t, err)

	// Tax assesses against the gross only; the reimbursement stays out.
	assert.Equal(t, int64(400000), result.TaxableIncome)
	assert.Equal(t, int64(40000), result.TaxDeducted)
	assert.Equal(t, int64(450000-40000), result.NetSalary)
}

func TestComputeLine_FlatRateExemption(t *testing.T) {
	snapshot := Snapshot{MonthlyGross: 250000}
	strategy := NewFlatRateStrategy(300000, decimal.NewFromInt(10))

	result, err := ComputeLine(snapshot, fullAttendance(), nil, strategy)
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.TaxableIncome)
	assert.Equal(t, int64(0), result.TaxDeducted)
	assert.Equal(t, int64(250000), result.NetSalary)
}

func TestComputeLine_FormulaComponent(t *testing.T) {
	formula, err := ParseExpression(`{"op":"sum","args":[{"op":"fixed","amount":10000},{"op":"percent_of","ref":"BASIC","percent":"5"}]}`)
	require.NoError(t, err)

	snapshot := Snapshot{
		MonthlyGross: 500000,
		Components: []Component{
			{Code: "BASIC", Kind: KindEarning, CalcMode: CalcModeFixed, Amount: 300000, Taxable: true},
			{Code: "SPECIAL", Name: "Special Allowance", Kind: KindEarning, CalcMode: CalcModeFormula, Formula: formula, Taxable: true},
		},
	}

	result, err := ComputeLine(snapshot, fullAttendance(), nil, NoTaxStrategy{})
	require.NoError(t, err)

	// 10000 + 5% of 300000
	assert.Equal(t, int64(300000+25000), result.TotalEarnings)
}

func TestComputeLine_UnknownBase(t *testing.T) {
	snapshot := Snapshot{
		MonthlyGross: 500000,
		Components: []Component{
			{Code: "HRA", Kind: KindEarning, CalcMode: CalcModePercentage, Percentage: decimal.NewFromInt(40), CalculationBase: "NOPE"},
		},
	}

	_, err := ComputeLine(snapshot, fullAttendance(), nil, NoTaxStrategy{})
	assert.ErrorIs(t, err, ErrUnknownBase)
}

func TestComputeLine_NetInvariantWithTax(t *testing.T) {
	snapshot := Snapshot{
		MonthlyGross: 700000,
		Components: []Component{
			{Code: "BASIC", Kind: KindEarning, CalcMode: CalcModeFixed, Amount: 400000, Taxable: true},
			{Code: "HRA", Kind: KindEarning, CalcMode: CalcModePercentage, Percentage: decimal.NewFromInt(40), CalculationBase: BaseBasic, Taxable: true},
			{Code: "PF", Kind: KindDeduction, CalcMode: CalcModePercentage, Percentage: decimal.NewFromInt(12), CalculationBase: BaseBasic},
		},
	}
	att := Attendance{WorkingDays: 21, PresentDays: 19, PaidLeaveDays: 1}

	result, err := ComputeLine(snapshot, att, nil, NewFlatRateStrategy(100000, decimal.NewFromInt(10)))
	require.NoError(t, err)

	assert.Equal(t, result.TotalEarnings-result.TotalDeductions, result.NetSalary)

	var sumEarnings, sumDeductions int64
	for _, d := range result.Details {
		if d.Kind == KindDeduction {
			sumDeductions += d.Amount
		} else {
			sumEarnings += d.Amount
		}
	}
	assert.Equal(t, result.TotalEarnings, sumEarnings)
	assert.Equal(t, result.TotalDeductions, sumDeductions)
}
