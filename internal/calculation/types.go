// Package calculation is the pure core of the payroll engine. It has no
// persistence and no clock: given one employee's compensation snapshot,
// attendance summary and due ad-hoc events, ComputeLine produces a fully
// itemized result. All amounts are int64 cents; fractional intermediate math
// goes through shared/money so rounding is banker's everywhere.
package calculation

import "github.com/shopspring/decimal"

// Component is one allocation from the employee's compensation snapshot,
// with the definition that was captured at revision time.
type Component struct {
	ComponentID     string
	Code            string
	Name            string
	Kind            string // EARNING | DEDUCTION | REIMBURSEMENT
	CalcMode        string // FIXED | PERCENTAGE | FORMULA
	Amount          int64
	Percentage      decimal.Decimal
	CalculationBase string // BASIC | GROSS | CTC
	Taxable         bool
	Formula         *Expression
}

// Snapshot is the calculation view of a compensation structure.
type Snapshot struct {
	EmployeeID   string
	AnnualCTC    int64
	MonthlyGross int64
	Components   []Component
}

// Attendance mirrors the monthly summary read model.
type Attendance struct {
	WorkingDays     int64
	PresentDays     int64
	PaidLeaveDays   int64
	UnpaidLeaveDays int64
	OvertimeHours   int64
}

// Event is one due ad-hoc entry, already narrowed to this pay period by the
// orchestrator. For loans, Amount is the single due installment and
// InstallmentID identifies it so finalize can mark exactly that one paid.
type Event struct {
	EventID       string
	Type          string // BONUS | LOAN | REIMBURSEMENT
	Description   string
	Amount        int64
	InstallmentID string
}

// Detail is one itemized entry on the resulting payroll line; the ordered
// set mirrors the snapshot components actually applied plus event entries
// and the tax line.
type Detail struct {
	ComponentID   string
	Code          string
	Name          string
	Kind          string
	Amount        int64
	Taxable       bool
	SourceEventID string
	InstallmentID string
}

// Result is the computed payroll line. NetSalary ==
// TotalEarnings − TotalDeductions holds exactly by construction.
type Result struct {
	GrossSalary     int64
	TotalEarnings   int64
	TotalDeductions int64
	TaxableIncome   int64
	TaxDeducted     int64
	NetSalary       int64
	Details         []Detail
}
