package payrollrun

type CreateRunRequest struct {
	PeriodMonth int    `json:"period_month" binding:"required,min=1,max=12"`
	PeriodYear  int    `json:"period_year" binding:"required,min=2000,max=2100"`
	PaymentDate string `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
}

// VersionedRequest carries the optimistic lock token for state transitions.
// Clients echo the version they last read; a stale version is rejected.
type VersionedRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

type CancelRequest struct {
	Version int    `json:"version" binding:"required,min=1"`
	Reason  string `json:"reason" binding:"omitempty,max=500"`
}

type ListFilterRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT PROCESSING CALCULATED APPROVED PAID CANCELLED"`
	Year     int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

type LineFilterRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING PROCESSED PAID HOLD"`
}

type RunResponse struct {
	ID          string `json:"id"`
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PaymentDate string `json:"payment_date"`
	Status      string `json:"status"`
	Version     int    `json:"version"`

	TotalGross      int64 `json:"total_gross"`
	TotalDeductions int64 `json:"total_deductions"`
	TotalNet        int64 `json:"total_net"`

	LineCounts map[string]int64 `json:"line_counts,omitempty"`

	ApprovedBy  *string `json:"approved_by,omitempty"`
	ApprovedAt  *string `json:"approved_at,omitempty"`
	FinalizedAt *string `json:"finalized_at,omitempty"`
}

type LineResponse struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	EmployeeID string `json:"employee_id"`

	WorkingDays     int64 `json:"working_days"`
	PresentDays     int64 `json:"present_days"`
	PaidLeaveDays   int64 `json:"paid_leave_days"`
	UnpaidLeaveDays int64 `json:"unpaid_leave_days"`
	OvertimeHours   int64 `json:"overtime_hours"`

	GrossSalary     int64 `json:"gross_salary"`
	TotalEarnings   int64 `json:"total_earnings"`
	TotalDeductions int64 `json:"total_deductions"`
	TaxableIncome   int64 `json:"taxable_income"`
	TaxDeducted     int64 `json:"tax_deducted"`
	NetSalary       int64 `json:"net_salary"`

	Status     string  `json:"status"`
	HoldReason *string `json:"hold_reason,omitempty"`

	Details []DetailResponse `json:"details,omitempty"`
}

type DetailResponse struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	Amount        int64   `json:"amount"`
	Taxable       bool    `json:"taxable"`
	SourceEventID *string `json:"source_event_id,omitempty"`
	InstallmentID *string `json:"installment_id,omitempty"`
}

// ProcessSummaryResponse reports the outcome of one process pass.
type ProcessSummaryResponse struct {
	Run       RunResponse `json:"run"`
	Processed int         `json:"processed"`
	Held      int         `json:"held"`
	Failed    int         `json:"failed"`
}
