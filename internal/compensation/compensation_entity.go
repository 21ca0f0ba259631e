package compensation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
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
)

// CompensationComponent is the company-scoped catalog definition of one
// payable or deductible line. Edited rarely; its flags are copied into every
// allocation that references it, so later edits never change the meaning of
// historical snapshots.
type CompensationComponent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index:idx_component_code,unique"`
	Code         string    `gorm:"type:varchar(40);not null;index:idx_component_code,unique"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Kind         string    `gorm:"type:varchar(20);not null"`
	CalcMode     string    `gorm:"type:varchar(20);not null"`
	Taxable      bool      `gorm:"not null;default:false"`
	PFApplicable bool      `gorm:"not null;default:false"`
	SIApplicable bool      `gorm:"not null;default:false"`
	// Formula holds the serialized expression tree for CalcMode FORMULA.
	// Never free-text evaluated; see internal/calculation/expression.go.
	Formula   *string `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// CompensationSnapshot is one immutable, effective-dated salary structure.
// Revisions never mutate a row; they close the open-ended one and insert a
// new current row. Per employee the intervals never overlap and exactly one
// row has effective_to NULL.
type CompensationSnapshot struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_snapshot_employee"`
	EffectiveFrom time.Time  `gorm:"type:date;not null;index:idx_snapshot_employee"`
	EffectiveTo   *time.Time `gorm:"type:date"`
	AnnualCTC     int64      `gorm:"type:bigint;not null"`
	MonthlyGross  int64      `gorm:"type:bigint;not null"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt     time.Time

	Allocations []ComponentAllocation `gorm:"foreignKey:SnapshotID"`
}

// ComponentAllocation is one ordered component entry within a snapshot. The
// component's definition (kind, calc mode, tax flags) is copied here at
// revision time so the snapshot stays self-contained.
type ComponentAllocation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SnapshotID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null"`
	Position    int       `gorm:"not null"`

	// Exactly one of Amount / Percentage is set, matching CalcMode.
	Amount          *int64              `gorm:"type:bigint"`
	Percentage      decimal.NullDecimal `gorm:"type:numeric(8,4)"`
	CalculationBase string              `gorm:"type:varchar(10);not null;default:'GROSS'"`

	// Definition captured at revision time.
	ComponentCode string  `gorm:"type:varchar(40);not null"`
	ComponentName string  `gorm:"type:varchar(120);not null"`
	Kind          string  `gorm:"type:varchar(20);not null"`
	CalcMode      string  `gorm:"type:varchar(20);not null"`
	Taxable       bool    `gorm:"not null;default:false"`
	PFApplicable  bool    `gorm:"not null;default:false"`
	SIApplicable  bool    `gorm:"not null;default:false"`
	Formula       *string `gorm:"type:jsonb"`

	CreatedAt time.Time
}
