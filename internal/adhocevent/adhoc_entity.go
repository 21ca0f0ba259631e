package adhocevent

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeBonus         = "BONUS"
	TypeLoan          = "LOAN"
	TypeReimbursement = "REIMBURSEMENT"

	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusScheduled = "SCHEDULED"
	StatusConsumed  = "CONSUMED"
	StatusRejected  = "REJECTED"

	InstallmentPending = "PENDING"
	InstallmentPaid    = "PAID"
	InstallmentSkipped = "SKIPPED"
)

// AdHocEvent is a bonus, loan or reimbursement that lives independently of
// any payroll run until the run that pays it out finalizes. Amounts are in
// the smallest currency unit.
type AdHocEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_adhoc_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       string    `gorm:"type:varchar(20);not null;index"`
	Amount     int64     `gorm:"type:bigint;not null"`
	Status     string    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_adhoc_company_status"`

	// Bonus: the payroll period it applies to.
	ApplicableMonth *int `gorm:"type:smallint"`
	ApplicableYear  *int `gorm:"type:smallint"`

	// Loan: Amount is the principal; the schedule adds interest on top.
	InterestAmount   int64      `gorm:"type:bigint;not null;default:0"`
	InstallmentCount int        `gorm:"type:smallint;not null;default:0"`
	FirstDueDate     *time.Time `gorm:"type:date"`

	Description  string  `gorm:"type:text"`
	RejectReason *string `gorm:"type:text"`

	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt *time.Time
	ConsumedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Installments []LoanInstallment `gorm:"foreignKey:EventID"`
}

// LoanInstallment is one scheduled repayment. Σ DueAmount over a loan's
// installments equals principal + interest exactly. Status flips to PAID at
// most once, atomically with the payroll run finalize that deducted it.
type LoanInstallment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Sequence      int        `gorm:"not null"`
	DueAmount     int64      `gorm:"type:bigint;not null"`
	DueDate       time.Time  `gorm:"type:date;not null;index"`
	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaidAt        *time.Time
	PayrollLineID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
