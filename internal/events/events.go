// Package events holds the topics and payload shapes the engine publishes
// through the transactional outbox. Payloads are versioned implicitly by
// topic name; additive changes only.
package events

import "time"

const (
	TopicPayrollRunFinalized = "payroll.run.finalized"
	TopicPayslipRequested    = "payroll.payslip.requested"
)

// PayrollRunFinalized announces that a run's single commit point succeeded:
// lines are paid, installments consumed, totals locked.
type PayrollRunFinalized struct {
	RunID       string    `json:"run_id"`
	CompanyID   string    `json:"company_id"`
	PeriodMonth int       `json:"period_month"`
	PeriodYear  int       `json:"period_year"`
	LineCount   int       `json:"line_count"`
	TotalNet    int64     `json:"total_net"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// PayslipRequested asks the consumer process to render and store one slip.
type PayslipRequested struct {
	PayrollLineID string    `json:"payroll_line_id"`
	RunID         string    `json:"run_id"`
	CompanyID     string    `json:"company_id"`
	EmployeeID    string    `json:"employee_id"`
	RequestedAt   time.Time `json:"requested_at"`
}
