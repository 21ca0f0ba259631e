package attendance

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// MonthlySummary is the aggregated attendance input one payroll line is
// computed from. Day counts are whole days; overtime is in hours.
type MonthlySummary struct {
	WorkingDays     int64
	PresentDays     int64
	PaidLeaveDays   int64
	UnpaidLeaveDays int64
	OvertimeHours   int64
}

// SummaryProvider is the read model the orchestrator consumes. Raw clock-in
// records are owned by the attendance module of the HR platform.
type SummaryProvider interface {
	GetMonthlySummary(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (MonthlySummary, error)
}

type summaryProvider struct {
	db    *gorm.DB
	group singleflight.Group
}

func NewSummaryProvider(db *gorm.DB) SummaryProvider {
	return &summaryProvider{db: db}
}

// GetMonthlySummary aggregates attendance and leave rows for one employee
// and period. Concurrent workers asking for the same employee/period share a
// single query via singleflight.
func (p *summaryProvider) GetMonthlySummary(
	ctx context.Context,
	companyID, employeeID string,
	periodStart, periodEnd time.Time,
) (MonthlySummary, error) {
	key := fmt.Sprintf("%s:%s:%s:%s",
		companyID, employeeID,
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"),
	)

	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.querySummary(ctx, companyID, employeeID, periodStart, periodEnd)
	})
	if err != nil {
		return MonthlySummary{}, err
	}

	return v.(MonthlySummary), nil
}

func (p *summaryProvider) querySummary(
	ctx context.Context,
	companyID, employeeID string,
	periodStart, periodEnd time.Time,
) (MonthlySummary, error) {
	summary := MonthlySummary{
		WorkingDays: businessDays(periodStart, periodEnd),
	}

	var attendanceAgg struct {
		PresentDays   int64
		OvertimeHours int64
	}
	err := p.db.WithContext(ctx).Raw(`
SELECT
	COUNT(DISTINCT attendance_date) AS present_days,
	COALESCE(SUM(overtime_hours), 0) AS overtime_hours
FROM attendances
WHERE company_id = ?
	AND employee_id = ?
	AND attendance_date BETWEEN ? AND ?
	AND status = 'PRESENT'
	AND deleted_at IS NULL
`, companyID, employeeID, periodStart, periodEnd).Scan(&attendanceAgg).Error
	if err != nil {
		return MonthlySummary{}, err
	}
	summary.PresentDays = attendanceAgg.PresentDays
	summary.OvertimeHours = attendanceAgg.OvertimeHours

	var leaveAgg struct {
		PaidDays   int64
		UnpaidDays int64
	}
	err = p.db.WithContext(ctx).Raw(`
SELECT
	COALESCE(SUM(CASE WHEN is_paid THEN total_days ELSE 0 END), 0) AS paid_days,
	COALESCE(SUM(CASE WHEN NOT is_paid THEN total_days ELSE 0 END), 0) AS unpaid_days
FROM leave_requests
WHERE company_id = ?
	AND employee_id = ?
	AND status = 'APPROVED'
	AND start_date >= ? AND end_date <= ?
`, companyID, employeeID, periodStart, periodEnd).Scan(&leaveAgg).Error
	if err != nil {
		return MonthlySummary{}, err
	}
	summary.PaidLeaveDays = leaveAgg.PaidDays
	summary.UnpaidLeaveDays = leaveAgg.UnpaidDays

	return summary, nil
}

// businessDays counts Monday-Friday days in the inclusive range.
func businessDays(start, end time.Time) int64 {
	var days int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
