package payrollrun

import (
	"context"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunTotals is the aggregate over a run's processed lines.
type RunTotals struct {
	TotalGross      int64
	TotalDeductions int64
	TotalNet        int64
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRun(ctx context.Context, run *PayrollRun) error
	FindRunByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollRun, error)
	FindRunByPeriod(ctx context.Context, companyID string, month, year int) (*PayrollRun, error)
	ListRuns(ctx context.Context, companyID string, filter ListFilterRequest) ([]PayrollRun, int64, error)

	// TransitionRun performs the guarded state transition: the update only
	// lands when the run still has the expected status and version, and it
	// bumps the version. Zero rows affected means either an illegal
	// transition or a concurrent writer.
	TransitionRun(ctx context.Context, runID, fromStatus, toStatus string, version int, extra map[string]any) (int64, error)

	DeleteRun(ctx context.Context, runID string) error

	CreateLines(ctx context.Context, lines []PayrollLine) error
	FindLineByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollLine, error)
	ListLines(ctx context.Context, runID string, filter LineFilterRequest) ([]PayrollLine, error)
	ListPendingLines(ctx context.Context, runID string) ([]PayrollLine, error)
	ListLinesByStatus(ctx context.Context, runID, status string) ([]PayrollLine, error)

	// SaveComputedLine writes a line's computed amounts and details, guarded
	// on PENDING so a concurrent or repeated process pass cannot double-write
	// the same line.
	SaveComputedLine(ctx context.Context, line *PayrollLine) (int64, error)

	HoldLine(ctx context.Context, lineID, reason string) error
	MarkLinesPaid(ctx context.Context, runID string, paidAt time.Time) (int64, error)

	CountLinesByStatus(ctx context.Context, runID string) (map[string]int64, error)
	TotalsForRun(ctx context.Context, runID string) (RunTotals, error)
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

func (r *repository) CreateRun(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) FindRunByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindRunByPeriod looks for a live (non-cancelled) run for the period; a
// cancelled run frees its period for a fresh one.
func (r *repository) FindRunByPeriod(ctx context.Context, companyID string, month, year int) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("period_month = ? AND period_year = ?", month, year).
		Where("status <> ?", RunStatusCancelled).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repository) ListRuns(ctx context.Context, companyID string, filter ListFilterRequest) ([]PayrollRun, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Scopes(tenant.Scope(companyID))

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Year != 0 {
		db = db.Where("period_year = ?", filter.Year)
	}
	if filter.Month != 0 {
		db = db.Where("period_month = ?", filter.Month)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []PayrollRun
	err := db.
		Order("period_year DESC, period_month DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&runs).Error
	return runs, total, err
}

func (r *repository) TransitionRun(
	ctx context.Context,
	runID, fromStatus, toStatus string,
	version int,
	extra map[string]any,
) (int64, error) {
	updates := map[string]any{
		"status":  toStatus,
		"version": gorm.Expr("version + 1"),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Where("id = ?", runID).
		Where("status = ?", fromStatus).
		Where("version = ?", version).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteRun(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", runID).
		Delete(&PayrollRun{}).Error
}

// CreateLines inserts skeleton lines, silently skipping employees that
// already have one in this run. That makes line generation idempotent across
// repeated process calls.
func (r *repository) CreateLines(ctx context.Context, lines []PayrollLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "employee_id"}},
			DoNothing: true,
		}).
		Create(&lines).Error
}

func (r *repository) FindLineByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollLine, error) {
	var line PayrollLine
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&line, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListLines(ctx context.Context, runID string, filter LineFilterRequest) ([]PayrollLine, error) {
	db := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("run_id = ?", runID)

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var lines []PayrollLine
	err := db.Order("created_at ASC").Find(&lines).Error
	return lines, err
}

func (r *repository) ListPendingLines(ctx context.Context, runID string) ([]PayrollLine, error) {
	return r.ListLinesByStatus(ctx, runID, LineStatusPending)
}

func (r *repository) ListLinesByStatus(ctx context.Context, runID, status string) ([]PayrollLine, error) {
	var lines []PayrollLine
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("run_id = ?", runID).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) SaveComputedLine(ctx context.Context, line *PayrollLine) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&PayrollLine{}).
			Where("id = ?", line.ID).
			Where("status = ?", LineStatusPending).
			Updates(map[string]any{
				"snapshot_id":       line.SnapshotID,
				"working_days":      line.WorkingDays,
				"present_days":      line.PresentDays,
				"paid_leave_days":   line.PaidLeaveDays,
				"unpaid_leave_days": line.UnpaidLeaveDays,
				"overtime_hours":    line.OvertimeHours,
				"gross_salary":      line.GrossSalary,
				"total_earnings":    line.TotalEarnings,
				"total_deductions":  line.TotalDeductions,
				"taxable_income":    line.TaxableIncome,
				"tax_deducted":      line.TaxDeducted,
				"net_salary":        line.NetSalary,
				"status":            LineStatusProcessed,
				"hold_reason":       nil,
				"processed_at":      line.ProcessedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 || len(line.Details) == 0 {
			return nil
		}
		return tx.Create(&line.Details).Error
	})
	return affected, err
}

func (r *repository) HoldLine(ctx context.Context, lineID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&PayrollLine{}).
		Where("id = ?", lineID).
		Where("status = ?", LineStatusPending).
		Updates(map[string]any{
			"status":      LineStatusHold,
			"hold_reason": reason,
		}).Error
}

func (r *repository) MarkLinesPaid(ctx context.Context, runID string, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&PayrollLine{}).
		Where("run_id = ?", runID).
		Where("status = ?", LineStatusProcessed).
		Updates(map[string]any{
			"status":  LineStatusPaid,
			"paid_at": paidAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) CountLinesByStatus(ctx context.Context, runID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&PayrollLine{}).
		Select("status, COUNT(*) AS count").
		Where("run_id = ?", runID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// TotalsForRun derives run totals from processed (or paid) lines only; held
// and pending lines contribute nothing.
func (r *repository) TotalsForRun(ctx context.Context, runID string) (RunTotals, error) {
	var totals RunTotals
	err := r.db.WithContext(ctx).
		Model(&PayrollLine{}).
		Select(`
			COALESCE(SUM(total_earnings), 0) AS total_gross,
			COALESCE(SUM(total_deductions), 0) AS total_deductions,
			COALESCE(SUM(net_salary), 0) AS total_net`).
		Where("run_id = ?", runID).
		Where("status IN ?", []string{LineStatusProcessed, LineStatusPaid}).
		Scan(&totals).Error
	return totals, err
}
