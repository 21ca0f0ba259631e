package employee

import (
	"context"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

// Directory is the read-only view the payroll engine has of employee master
// data. Hiring, transfers and terminations happen elsewhere.
type Directory interface {
	ListEligible(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error)
	BelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error)
}

type directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &directory{db: db}
}

// ListEligible returns active, non-terminated employees. Employees on leave
// stay eligible; attendance pro-ration handles their absence.
func (d *directory) ListEligible(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := d.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employment_status <> ?", StatusTerminated).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (d *directory) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error) {
	var emp Employee
	err := d.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&emp, "id = ?", id).Error
	return &emp, err
}

func (d *directory) BelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}
