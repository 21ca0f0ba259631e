package adhocevent

type CreateBonusRequest struct {
	EmployeeID      string `json:"employee_id" binding:"required,uuid"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	ApplicableMonth int    `json:"applicable_month" binding:"required,min=1,max=12"`
	ApplicableYear  int    `json:"applicable_year" binding:"required,min=2000"`
	Description     string `json:"description"`
}

type CreateLoanRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	Principal        int64  `json:"principal" binding:"required,gt=0"`
	InterestAmount   int64  `json:"interest_amount" binding:"min=0"`
	InstallmentCount int    `json:"installment_count" binding:"required,min=1,max=120"`
	FirstDueDate     string `json:"first_due_date" binding:"required"`
	Description      string `json:"description"`
}

type CreateReimbursementRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListFilterRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Type       string `form:"type" binding:"omitempty,oneof=BONUS LOAN REIMBURSEMENT"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING APPROVED SCHEDULED CONSUMED REJECTED"`
}

type InstallmentResponse struct {
	ID        string  `json:"id"`
	Sequence  int     `json:"sequence"`
	DueAmount int64   `json:"due_amount"`
	DueDate   string  `json:"due_date"`
	Status    string  `json:"status"`
	PaidAt    *string `json:"paid_at,omitempty"`
}

type EventResponse struct {
	ID              string                `json:"id"`
	EmployeeID      string                `json:"employee_id"`
	Type            string                `json:"type"`
	Amount          int64                 `json:"amount"`
	Status          string                `json:"status"`
	ApplicableMonth *int                  `json:"applicable_month,omitempty"`
	ApplicableYear  *int                  `json:"applicable_year,omitempty"`
	InterestAmount  int64                 `json:"interest_amount,omitempty"`
	Description     string                `json:"description,omitempty"`
	RejectReason    *string               `json:"reject_reason,omitempty"`
	Installments    []InstallmentResponse `json:"installments,omitempty"`
}
