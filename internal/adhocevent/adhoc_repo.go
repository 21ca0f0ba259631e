package adhocevent

import (
	"context"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, event *AdHocEvent) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*AdHocEvent, error)
	ListByCompany(ctx context.Context, companyID string, filter ListFilterRequest) ([]AdHocEvent, error)
	Update(ctx context.Context, event *AdHocEvent) error

	// ListDueForPeriod returns the events applicable to one employee's pay
	// period: approved bonuses for the period's month, approved
	// reimbursements, and scheduled loans that still have a pending
	// installment due inside the period (installments preloaded).
	ListDueForPeriod(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) ([]AdHocEvent, error)

	// MarkInstallmentPaid flips one pending installment to PAID and stamps
	// the payroll line that deducted it. Guarded on status so a retried
	// finalize can never pay the same installment twice; returns the number
	// of rows actually updated.
	MarkInstallmentPaid(ctx context.Context, installmentID, payrollLineID string, paidAt time.Time) (int64, error)

	// MarkEventConsumed moves an approved/scheduled event to CONSUMED.
	MarkEventConsumed(ctx context.Context, eventID string, consumedAt time.Time) (int64, error)

	// CountPendingInstallments tells whether a loan still has open
	// installments after a finalize marked some paid.
	CountPendingInstallments(ctx context.Context, eventID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *AdHocEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
	var event AdHocEvent
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID string, filter ListFilterRequest) ([]AdHocEvent, error) {
	db := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})

	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var events []AdHocEvent
	err := db.Order("created_at DESC").Find(&events).Error
	return events, err
}

func (r *repository) Update(ctx context.Context, event *AdHocEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *repository) ListDueForPeriod(
	ctx context.Context,
	companyID, employeeID string,
	periodStart, periodEnd time.Time,
) ([]AdHocEvent, error) {
	var events []AdHocEvent

	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("employee_id = ?", employeeID).
		Where(`
			(type = ? AND status = ? AND applicable_year = ? AND applicable_month = ?)
			OR (type = ? AND status = ?)
			OR (type = ? AND status = ? AND EXISTS (
				SELECT 1 FROM loan_installments
				WHERE loan_installments.event_id = ad_hoc_events.id
					AND loan_installments.status = ?
					AND loan_installments.due_date BETWEEN ? AND ?
			))`,
			TypeBonus, StatusApproved, periodEnd.Year(), int(periodEnd.Month()),
			TypeReimbursement, StatusApproved,
			TypeLoan, StatusScheduled, InstallmentPending, periodStart, periodEnd,
		).
		Order("created_at ASC").
		Find(&events).Error

	return events, err
}

func (r *repository) MarkInstallmentPaid(
	ctx context.Context,
	installmentID, payrollLineID string,
	paidAt time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&LoanInstallment{}).
		Where("id = ?", installmentID).
		Where("status = ?", InstallmentPending).
		Updates(map[string]any{
			"status":          InstallmentPaid,
			"paid_at":         paidAt,
			"payroll_line_id": payrollLineID,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) MarkEventConsumed(ctx context.Context, eventID string, consumedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&AdHocEvent{}).
		Where("id = ?", eventID).
		Where("status IN ?", []string{StatusApproved, StatusScheduled}).
		Updates(map[string]any{
			"status":      StatusConsumed,
			"consumed_at": consumedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) CountPendingInstallments(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LoanInstallment{}).
		Where("event_id = ?", eventID).
		Where("status = ?", InstallmentPending).
		Count(&count).Error
	return count, err
}
