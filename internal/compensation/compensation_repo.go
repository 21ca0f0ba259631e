package compensation

import (
	"context"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateComponent(ctx context.Context, component *CompensationComponent) error
	ListComponents(ctx context.Context, companyID string) ([]CompensationComponent, error)
	FindComponents(ctx context.Context, companyID string, ids []string) ([]CompensationComponent, error)

	CreateSnapshot(ctx context.Context, snapshot *CompensationSnapshot) error
	FindCurrent(ctx context.Context, companyID, employeeID string, asOf time.Time) (*CompensationSnapshot, error)
	FindOpenEnded(ctx context.Context, companyID, employeeID string) (*CompensationSnapshot, error)
	CloseSnapshot(ctx context.Context, snapshotID string, effectiveTo time.Time) error
	ListByEmployee(ctx context.Context, companyID, employeeID string) ([]CompensationSnapshot, error)
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

func (r *repository) CreateComponent(ctx context.Context, component *CompensationComponent) error {
	return r.db.WithContext(ctx).Create(component).Error
}

func (r *repository) ListComponents(ctx context.Context, companyID string) ([]CompensationComponent, error) {
	var components []CompensationComponent
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("code ASC").
		Find(&components).Error
	return components, err
}

func (r *repository) FindComponents(ctx context.Context, companyID string, ids []string) ([]CompensationComponent, error) {
	var components []CompensationComponent
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Find(&components).Error
	return components, err
}

func (r *repository) CreateSnapshot(ctx context.Context, snapshot *CompensationSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// FindCurrent resolves the snapshot effective at asOf: effective_from <= asOf
// and (open-ended or effective_to >= asOf).
func (r *repository) FindCurrent(ctx context.Context, companyID, employeeID string, asOf time.Time) (*CompensationSnapshot, error) {
	var snapshot CompensationSnapshot
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("employee_id = ?", employeeID).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Order("effective_from DESC").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) FindOpenEnded(ctx context.Context, companyID, employeeID string) (*CompensationSnapshot, error) {
	var snapshot CompensationSnapshot
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("employee_id = ?", employeeID).
		Where("effective_to IS NULL").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) CloseSnapshot(ctx context.Context, snapshotID string, effectiveTo time.Time) error {
	return r.db.WithContext(ctx).
		Model(&CompensationSnapshot{}).
		Where("id = ?", snapshotID).
		Where("effective_to IS NULL").
		Update("effective_to", effectiveTo).Error
}

func (r *repository) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]CompensationSnapshot, error) {
	var snapshots []CompensationSnapshot
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("employee_id = ?", employeeID).
		Order("effective_from DESC").
		Find(&snapshots).Error
	return snapshots, err
}
