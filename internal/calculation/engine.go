package calculation

import (
	"errors"
	"fmt"

	"go-payroll/internal/shared/money"

	"github.com/shopspring/decimal"
)

const (
	KindEarning       = "EARNING"
	KindDeduction     = "DEDUCTION"
	KindReimbursement = "REIMBURSEMENT"

	CalcModeFixed      = "FIXED"
	CalcModePercentage = "PERCENTAGE"
	CalcModeFormula    = "FORMULA"

	BaseBasic = "BASIC"
	BaseGross = "GROSS"
	BaseCTC   = "CTC"

	EventBonus         = "BONUS"
	EventLoan          = "LOAN"
	EventReimbursement = "REIMBURSEMENT"

	codeGross    = "GROSS_SALARY"
	codeTax      = "INCOME_TAX"
	taxLineLabel = "Income Tax"
)

var (
	ErrNoWorkingDays = errors.New("attendance summary has zero working days")
	ErrUnknownBase   = errors.New("unknown calculation base")
)

// ComputeLine runs the full per-employee calculation for one pay period.
//
// Order of operations: the payable ratio comes from attendance
// (present + paid leave over working days); the monthly gross is prorated by
// that ratio; earning components resolve in snapshot order with FIXED before
// PERCENTAGE and FORMULA so that BASIC-based components always see a resolved
// base; deductions are never prorated; due events fold in after components;
// tax assesses last against the sum of taxable earnings.
func ComputeLine(snapshot Snapshot, att Attendance, events []Event, tax TaxStrategy) (Result, error) {
	if att.WorkingDays <= 0 {
		return Result{}, ErrNoWorkingDays
	}

	payableDays := att.PresentDays + att.PaidLeaveDays
	if payableDays > att.WorkingDays {
		payableDays = att.WorkingDays
	}
	ratio := money.Ratio(payableDays, att.WorkingDays)

	grossSalary := money.Prorate(snapshot.MonthlyGross, payableDays, att.WorkingDays)
	monthlyCTC := money.Prorate(snapshot.AnnualCTC, 1, 12)

	resolved := map[string]int64{
		BaseGross: grossSalary,
		BaseCTC:   money.MulRatio(monthlyCTC, ratio),
	}
	env := func(ref string) (int64, bool) {
		v, ok := resolved[ref]
		return v, ok
	}

	details := make([]Detail, 0, len(snapshot.Components)+len(events)+1)

	// FIXED components first so percentage and formula components can
	// reference them, then the rest in snapshot order.
	ordered := make([]Component, 0, len(snapshot.Components))
	for _, comp := range snapshot.Components {
		if comp.CalcMode == CalcModeFixed {
			ordered = append(ordered, comp)
		}
	}
	for _, comp := range snapshot.Components {
		if comp.CalcMode != CalcModeFixed {
			ordered = append(ordered, comp)
		}
	}

	var hasEarningComponent bool
	for _, comp := range ordered {
		amount, err := resolveComponent(comp, env, ratio)
		if err != nil {
			return Result{}, fmt.Errorf("component %s: %w", comp.Code, err)
		}
		resolved[comp.Code] = amount
		if comp.Kind == KindEarning {
			hasEarningComponent = true
		}
		details = append(details, Detail{
			ComponentID: comp.ComponentID,
			Code:        comp.Code,
			Name:        comp.Name,
			Kind:        comp.Kind,
			Amount:      amount,
			Taxable:     comp.Taxable,
		})
	}

	// A snapshot without an earning breakdown pays the prorated gross as a
	// single taxable line.
	if !hasEarningComponent {
		details = append(details, Detail{
			Code:    codeGross,
			Name:    "Gross Salary",
			Kind:    KindEarning,
			Amount:  grossSalary,
			Taxable: true,
		})
	}

	for _, ev := range events {
		details = append(details, eventDetail(ev))
	}

	var totalEarnings, totalDeductions, taxableEarnings int64
	for _, d := range details {
		switch d.Kind {
		case KindDeduction:
			totalDeductions += d.Amount
		default:
			totalEarnings += d.Amount
			if d.Taxable {
				taxableEarnings += d.Amount
			}
		}
	}

	taxableIncome, taxDeducted := tax.Assess(taxableEarnings)
	if taxDeducted != 0 {
		details = append(details, Detail{
			Code:   codeTax,
			Name:   taxLineLabel,
			Kind:   KindDeduction,
			Amount: taxDeducted,
		})
		totalDeductions += taxDeducted
	}

	return Result{
		GrossSalary:     grossSalary,
		TotalEarnings:   totalEarnings,
		TotalDeductions: totalDeductions,
		TaxableIncome:   taxableIncome,
		TaxDeducted:     taxDeducted,
		NetSalary:       totalEarnings - totalDeductions,
		Details:         details,
	}, nil
}

// resolveComponent computes one component's amount. Earning components in
// FIXED mode scale by the payable ratio; deductions and reimbursements keep
// their full amount. Percentage and formula components read already
// prorated bases, so they are never prorated twice.
func resolveComponent(comp Component, env Env, ratio decimal.Decimal) (int64, error) {
	switch comp.CalcMode {
	case CalcModeFixed:
		if comp.Kind == KindEarning {
			return money.MulRatio(comp.Amount, ratio), nil
		}
		return comp.Amount, nil
	case CalcModePercentage:
		base, ok := env(comp.CalculationBase)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownBase, comp.CalculationBase)
		}
		return money.PercentOf(base, comp.Percentage), nil
	case CalcModeFormula:
		if comp.Formula == nil {
			return 0, fmt.Errorf("formula component has no formula")
		}
		return comp.Formula.Eval(env)
	default:
		return 0, fmt.Errorf("unknown calculation mode %q", comp.CalcMode)
	}
}

func eventDetail(ev Event) Detail {
	switch ev.Type {
	case EventLoan:
		return Detail{
			Code:          "LOAN_REPAYMENT",
			Name:          ev.Description,
			Kind:          KindDeduction,
			Amount:        ev.Amount,
			SourceEventID: ev.EventID,
			InstallmentID: ev.InstallmentID,
		}
	case EventReimbursement:
		return Detail{
			Code:          "REIMBURSEMENT",
			Name:          ev.Description,
			Kind:          KindEarning,
			Amount:        ev.Amount,
			Taxable:       false,
			SourceEventID: ev.EventID,
		}
	default:
		return Detail{
			Code:          "BONUS",
			Name:          ev.Description,
			Kind:          KindEarning,
			Amount:        ev.Amount,
			Taxable:       true,
			SourceEventID: ev.EventID,
		}
	}
}
