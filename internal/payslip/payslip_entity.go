package payslip

import (
	"time"

	"github.com/google/uuid"
)

// Payslip is the emitted document record for one payroll line. The unique
// index on payroll_line_id is what makes emission idempotent at the storage
// level, whatever path led to it.
type Payslip struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PayrollLineID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SlipNumber    string    `gorm:"type:varchar(40);not null"`
	FilePath      string    `gorm:"type:varchar(255);not null"`
	GeneratedAt   time.Time `gorm:"not null"`
	CreatedAt     time.Time
}

func (Payslip) TableName() string {
	return "payslips"
}
