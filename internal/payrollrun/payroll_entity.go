package payrollrun

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RunStatusDraft      = "DRAFT"
	RunStatusProcessing = "PROCESSING"
	RunStatusCalculated = "CALCULATED"
	RunStatusApproved   = "APPROVED"
	RunStatusPaid       = "PAID"
	RunStatusCancelled  = "CANCELLED"

	LineStatusPending   = "PENDING"
	LineStatusProcessed = "PROCESSED"
	LineStatusPaid      = "PAID"
	LineStatusHold      = "HOLD"

	HoldNoCompensation = "no_compensation_structure"
	HoldNoAttendance   = "no_attendance_data"
)

// runTransitions is the full state machine. Finalize is the only transition
// with side effects beyond the run row itself.
var runTransitions = map[string][]string{
	RunStatusDraft:      {RunStatusProcessing, RunStatusCancelled},
	RunStatusProcessing: {RunStatusCalculated, RunStatusCancelled},
	RunStatusCalculated: {RunStatusApproved},
	RunStatusApproved:   {RunStatusPaid},
}

// CanTransition reports whether from→to is a legal run transition.
func CanTransition(from, to string) bool {
	for _, allowed := range runTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PayrollRun is one pay cycle for one company and calendar month. Version is
// bumped on every state transition; a stale writer loses the guarded update
// and surfaces a concurrency conflict instead of clobbering state. Totals
// are derived from processed lines while the run is open and locked into the
// row at finalize.
type PayrollRun struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// The period index is partial: cancelled and soft-deleted runs free their
	// period for a fresh draft, matching FindRunByPeriod.
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_run_period,unique,where:status <> 'CANCELLED' AND deleted_at IS NULL"`
	PeriodMonth int       `gorm:"type:smallint;not null;index:idx_run_period,unique"`
	PeriodYear  int       `gorm:"type:smallint;not null;index:idx_run_period,unique"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	PaymentDate time.Time `gorm:"type:date;not null"`

	Status  string `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Version int    `gorm:"not null;default:1"`

	TotalGross      int64 `gorm:"type:bigint;not null;default:0"`
	TotalDeductions int64 `gorm:"type:bigint;not null;default:0"`
	TotalNet        int64 `gorm:"type:bigint;not null;default:0"`

	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt  *time.Time
	FinalizedAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Lines []PayrollLine `gorm:"foreignKey:RunID"`
}

// PayrollLine is one employee's computed pay within a run. At most one line
// per employee per run. A held line never blocks the rest of the batch.
type PayrollLine struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_line_run_employee,unique"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_line_run_employee,unique"`
	SnapshotID *uuid.UUID `gorm:"type:uuid"`

	WorkingDays     int64 `gorm:"not null;default:0"`
	PresentDays     int64 `gorm:"not null;default:0"`
	PaidLeaveDays   int64 `gorm:"not null;default:0"`
	UnpaidLeaveDays int64 `gorm:"not null;default:0"`
	OvertimeHours   int64 `gorm:"not null;default:0"`

	GrossSalary     int64 `gorm:"type:bigint;not null;default:0"`
	TotalEarnings   int64 `gorm:"type:bigint;not null;default:0"`
	TotalDeductions int64 `gorm:"type:bigint;not null;default:0"`
	TaxableIncome   int64 `gorm:"type:bigint;not null;default:0"`
	TaxDeducted     int64 `gorm:"type:bigint;not null;default:0"`
	NetSalary       int64 `gorm:"type:bigint;not null;default:0"`

	Status     string  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	HoldReason *string `gorm:"type:varchar(60)"`

	ProcessedAt *time.Time
	PaidAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Details []LineComponentDetail `gorm:"foreignKey:LineID"`
}

// LineComponentDetail is one itemized entry on a line: a snapshot component
// actually applied, an ad-hoc event folded in, or the tax line. Event-backed
// entries carry the source so finalize can consume exactly what was computed.
type LineComponentDetail struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LineID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ComponentID *uuid.UUID `gorm:"type:uuid"`
	Position    int        `gorm:"not null"`

	Code    string `gorm:"type:varchar(40);not null"`
	Name    string `gorm:"type:varchar(120);not null"`
	Kind    string `gorm:"type:varchar(20);not null"`
	Amount  int64  `gorm:"type:bigint;not null"`
	Taxable bool   `gorm:"not null;default:false"`

	SourceEventID *uuid.UUID `gorm:"type:uuid;index"`
	InstallmentID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
}
