package payrollrun

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go-payroll/internal/adhocevent"
	"go-payroll/internal/attendance"
	"go-payroll/internal/audit"
	"go-payroll/internal/calculation"
	"go-payroll/internal/compensation"
	"go-payroll/internal/employee"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	payrollerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRunRequest) (RunResponse, error)
	GetByID(ctx context.Context, companyID, id string) (RunResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilterRequest) ([]RunResponse, int64, error)

	Process(ctx context.Context, companyID, actorID, id string, req VersionedRequest) (ProcessSummaryResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string, req VersionedRequest) (RunResponse, error)
	Finalize(ctx context.Context, companyID, actorID, id string, req VersionedRequest) (RunResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string, req CancelRequest) (RunResponse, error)
	Delete(ctx context.Context, companyID, id string) error

	GetLines(ctx context.Context, companyID, runID string, filter LineFilterRequest) ([]LineResponse, error)
	GetLine(ctx context.Context, companyID, lineID string) (LineResponse, error)
}

type service struct {
	db         *gorm.DB
	repo       Repository
	directory  employee.Directory
	comps      compensation.Repository
	summaries  attendance.SummaryProvider
	adhoc      adhocevent.Repository
	outbox     kafka.OutboxRepository
	auditor    audit.Writer
	tax        calculation.TaxStrategy
	workers    int
}

func NewService(
	db *gorm.DB,
	repo Repository,
	directory employee.Directory,
	comps compensation.Repository,
	summaries attendance.SummaryProvider,
	adhoc adhocevent.Repository,
	outbox kafka.OutboxRepository,
	auditor audit.Writer,
	tax calculation.TaxStrategy,
	workers int,
) Service {
	if workers <= 0 {
		workers = 4
	}
	return &service{
		db:        db,
		repo:      repo,
		directory: directory,
		comps:     comps,
		summaries: summaries,
		adhoc:     adhoc,
		outbox:    outbox,
		auditor:   auditor,
		tax:       tax,
		workers:   workers,
	}
}

func (s *service) Create(
	ctx context.Context,
	companyID, actorID string,
	req CreateRunRequest,
) (RunResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidIdentifier
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidIdentifier
	}

	periodStart := time.Date(req.PeriodYear, time.Month(req.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	paymentDate := periodEnd
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return RunResponse{}, payrollerrors.ErrInvalidPeriod
		}
	}

	if _, err := s.repo.FindRunByPeriod(ctx, companyID, req.PeriodMonth, req.PeriodYear); err == nil {
		return RunResponse{}, payrollerrors.ErrPeriodExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RunResponse{}, err
	}

	run := &PayrollRun{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PaymentDate: paymentDate,
		Status:      RunStatusDraft,
		Version:     1,
		CreatedBy:   actorUUID,
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return RunResponse{}, payrollerrors.ErrPeriodExists
		}
		return RunResponse{}, err
	}

	resp := mapRunToResponse(*run, nil)
	if err := s.auditor.Record(ctx, companyID, "payroll_run", run.ID.String(), "CREATED", nil, resp); err != nil {
		return RunResponse{}, err
	}

	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (RunResponse, error) {
	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunResponse{}, payrollerrors.ErrRunNotFound
		}
		return RunResponse{}, err
	}

	counts, err := s.repo.CountLinesByStatus(ctx, id)
	if err != nil {
		return RunResponse{}, err
	}

	// Totals are derived from processed lines until finalize locks them into
	// the run row.
	if run.Status != RunStatusPaid {
		totals, err := s.repo.TotalsForRun(ctx, id)
		if err != nil {
			return RunResponse{}, err
		}
		run.TotalGross = totals.TotalGross
		run.TotalDeductions = totals.TotalDeductions
		run.TotalNet = totals.TotalNet
	}

	return mapRunToResponse(*run, counts), nil
}

func (s *service) GetAll(
	ctx context.Context,
	companyID string,
	filter ListFilterRequest,
) ([]RunResponse, int64, error) {
	runs, total, err := s.repo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]RunResponse, len(runs))
	for i, run := range runs {
		resp[i] = mapRunToResponse(run, nil)
	}
	return resp, total, nil
}

// Process moves the run into PROCESSING, materializes one pending line per
// eligible employee, computes every pending line through a bounded worker
// pool, and flips the run to CALCULATED once no pending lines remain.
// Re-running it resumes: already processed and held lines are skipped.
func (s *service) Process(
	ctx context.Context,
	companyID, actorID, id string,
	req VersionedRequest,
) (ProcessSummaryResponse, error) {
	logger := contextutil.GetLogger(ctx, nil).Named("payroll_process").With(zap.String("run_id", id))

	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProcessSummaryResponse{}, payrollerrors.ErrRunNotFound
		}
		return ProcessSummaryResponse{}, err
	}

	version := req.Version
	switch run.Status {
	case RunStatusDraft:
		affected, err := s.repo.TransitionRun(ctx, id, RunStatusDraft, RunStatusProcessing, version, nil)
		if err != nil {
			return ProcessSummaryResponse{}, err
		}
		if affected == 0 {
			return ProcessSummaryResponse{}, payrollerrors.ErrConcurrentModification
		}
		version++
	case RunStatusProcessing:
		// Resume of an interrupted pass; no transition, but the caller must
		// still hold the current version.
		if run.Version != version {
			return ProcessSummaryResponse{}, payrollerrors.ErrConcurrentModification
		}
	default:
		return ProcessSummaryResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	if err := s.materializeLines(ctx, run); err != nil {
		return ProcessSummaryResponse{}, err
	}

	pending, err := s.repo.ListPendingLines(ctx, id)
	if err != nil {
		return ProcessSummaryResponse{}, err
	}

	logger.Info("processing run",
		zap.Int("pending_lines", len(pending)),
		zap.Int("workers", s.workers),
	)

	var processed, held, failed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i := range pending {
		line := pending[i]
		group.Go(func() error {
			switch outcome := s.processLine(groupCtx, run, line, logger); outcome {
			case lineProcessed:
				processed.Add(1)
			case lineHeld:
				held.Add(1)
			case lineFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ProcessSummaryResponse{}, err
	}

	counts, err := s.repo.CountLinesByStatus(ctx, id)
	if err != nil {
		return ProcessSummaryResponse{}, err
	}

	// Failed lines stay PENDING; the run only advances once they are gone.
	if counts[LineStatusPending] == 0 {
		affected, err := s.repo.TransitionRun(ctx, id, RunStatusProcessing, RunStatusCalculated, version, nil)
		if err != nil {
			return ProcessSummaryResponse{}, err
		}
		if affected == 0 {
			return ProcessSummaryResponse{}, payrollerrors.ErrConcurrentModification
		}
	}

	summary, err := s.GetByID(ctx, companyID, id)
	if err != nil {
		return ProcessSummaryResponse{}, err
	}

	if err := s.auditor.Record(ctx, companyID, "payroll_run", id, "PROCESSED", nil, summary); err != nil {
		return ProcessSummaryResponse{}, err
	}

	logger.Info("run processed",
		zap.Int64("processed", processed.Load()),
		zap.Int64("held", held.Load()),
		zap.Int64("failed", failed.Load()),
	)

	return ProcessSummaryResponse{
		Run:       summary,
		Processed: int(processed.Load()),
		Held:      int(held.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// materializeLines inserts a pending skeleton line for every eligible
// employee that does not have one yet.
func (s *service) materializeLines(ctx context.Context, run *PayrollRun) error {
	eligible, err := s.directory.ListEligible(ctx, run.CompanyID.String())
	if err != nil {
		return err
	}

	lines := make([]PayrollLine, 0, len(eligible))
	for _, emp := range eligible {
		lines = append(lines, PayrollLine{
			ID:         uuid.New(),
			RunID:      run.ID,
			CompanyID:  run.CompanyID,
			EmployeeID: emp.ID,
			Status:     LineStatusPending,
		})
	}

	return s.repo.CreateLines(ctx, lines)
}

type lineOutcome int

const (
	lineProcessed lineOutcome = iota
	lineHeld
	lineFailed
	lineSkipped
)

func (s *service) processLine(
	ctx context.Context,
	run *PayrollRun,
	line PayrollLine,
	logger *zap.Logger,
) lineOutcome {
	companyID := run.CompanyID.String()
	employeeID := line.EmployeeID.String()
	lineLogger := logger.With(zap.String("employee_id", employeeID))

	snapshot, err := s.comps.FindCurrent(ctx, companyID, employeeID, run.PeriodEnd)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.holdLine(ctx, line, HoldNoCompensation, lineLogger)
		}
		lineLogger.Error("load compensation failed", zap.Error(err))
		return lineFailed
	}

	summary, err := s.summaries.GetMonthlySummary(ctx, companyID, employeeID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		lineLogger.Error("load attendance failed", zap.Error(err))
		return lineFailed
	}
	if summary.WorkingDays == 0 {
		return s.holdLine(ctx, line, HoldNoAttendance, lineLogger)
	}

	due, err := s.adhoc.ListDueForPeriod(ctx, companyID, employeeID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		lineLogger.Error("load due events failed", zap.Error(err))
		return lineFailed
	}

	calcSnapshot, err := toCalcSnapshot(*snapshot)
	if err != nil {
		lineLogger.Error("snapshot not computable", zap.Error(err))
		return lineFailed
	}

	result, err := calculation.ComputeLine(
		calcSnapshot,
		calculation.Attendance{
			WorkingDays:     summary.WorkingDays,
			PresentDays:     summary.PresentDays,
			PaidLeaveDays:   summary.PaidLeaveDays,
			UnpaidLeaveDays: summary.UnpaidLeaveDays,
			OvertimeHours:   summary.OvertimeHours,
		},
		dueToCalcEvents(due, run.PeriodStart, run.PeriodEnd),
		s.tax,
	)
	if err != nil {
		lineLogger.Error("calculation failed", zap.Error(err))
		return lineFailed
	}

	now := time.Now().UTC()
	line.SnapshotID = &snapshot.ID
	line.WorkingDays = summary.WorkingDays
	line.PresentDays = summary.PresentDays
	line.PaidLeaveDays = summary.PaidLeaveDays
	line.UnpaidLeaveDays = summary.UnpaidLeaveDays
	line.OvertimeHours = summary.OvertimeHours
	line.GrossSalary = result.GrossSalary
	line.TotalEarnings = result.TotalEarnings
	line.TotalDeductions = result.TotalDeductions
	line.TaxableIncome = result.TaxableIncome
	line.TaxDeducted = result.TaxDeducted
	line.NetSalary = result.NetSalary
	line.ProcessedAt = &now
	line.Details = detailsFromResult(line.ID, result.Details)

	affected, err := s.repo.SaveComputedLine(ctx, &line)
	if err != nil {
		lineLogger.Error("persist line failed", zap.Error(err))
		return lineFailed
	}
	if affected == 0 {
		return lineSkipped
	}
	return lineProcessed
}

func (s *service) holdLine(ctx context.Context, line PayrollLine, reason string, logger *zap.Logger) lineOutcome {
	if err := s.repo.HoldLine(ctx, line.ID.String(), reason); err != nil {
		logger.Error("hold line failed", zap.Error(err))
		return lineFailed
	}
	logger.Warn("line held", zap.String("reason", reason))
	return lineHeld
}

func (s *service) Approve(
	ctx context.Context,
	companyID, actorID, id string,
	req VersionedRequest,
) (RunResponse, error) {
	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunResponse{}, payrollerrors.ErrRunNotFound
		}
		return RunResponse{}, err
	}
	if run.Status != RunStatusCalculated {
		return RunResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	approverUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidIdentifier
	}

	before := mapRunToResponse(*run, nil)

	now := time.Now().UTC()
	affected, err := s.repo.TransitionRun(ctx, id, RunStatusCalculated, RunStatusApproved, req.Version, map[string]any{
		"approved_by": approverUUID,
		"approved_at": now,
	})
	if err != nil {
		return RunResponse{}, err
	}
	if affected == 0 {
		return RunResponse{}, payrollerrors.ErrConcurrentModification
	}

	after, err := s.GetByID(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}

	if err := s.auditor.Record(ctx, companyID, "payroll_run", id, "APPROVED", before, after); err != nil {
		return RunResponse{}, err
	}

	return after, nil
}

// Finalize is the run's single commit point. In one transaction it consumes
// every ad-hoc event and installment exactly as computed, marks processed
// lines paid, locks the totals and flips the run to PAID; the outbox rows go
// into the same transaction. Any conflict rolls the whole thing back.
func (s *service) Finalize(
	ctx context.Context,
	companyID, actorID, id string,
	req VersionedRequest,
) (RunResponse, error) {
	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunResponse{}, payrollerrors.ErrRunNotFound
		}
		return RunResponse{}, err
	}
	if run.Status != RunStatusApproved {
		return RunResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	before := mapRunToResponse(*run, nil)
	now := time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)
		qadhoc := s.adhoc.WithTx(tx)
		qoutbox := s.outbox.WithTx(tx)

		lines, err := qtx.ListLinesByStatus(ctx, id, LineStatusProcessed)
		if err != nil {
			return err
		}

		loanEvents := make(map[uuid.UUID]struct{})
		for _, line := range lines {
			for _, detail := range line.Details {
				if detail.SourceEventID == nil {
					continue
				}
				if detail.InstallmentID != nil {
					affected, err := qadhoc.MarkInstallmentPaid(ctx, detail.InstallmentID.String(), line.ID.String(), now)
					if err != nil {
						return err
					}
					if affected == 0 {
						return payrollerrors.ErrInstallmentConflict
					}
					loanEvents[*detail.SourceEventID] = struct{}{}
					continue
				}
				affected, err := qadhoc.MarkEventConsumed(ctx, detail.SourceEventID.String(), now)
				if err != nil {
					return err
				}
				if affected == 0 {
					return payrollerrors.ErrEventConflict
				}
			}
		}

		// A loan is only spent once its last installment is paid.
		for eventID := range loanEvents {
			remaining, err := qadhoc.CountPendingInstallments(ctx, eventID.String())
			if err != nil {
				return err
			}
			if remaining == 0 {
				if _, err := qadhoc.MarkEventConsumed(ctx, eventID.String(), now); err != nil {
					return err
				}
			}
		}

		totals, err := qtx.TotalsForRun(ctx, id)
		if err != nil {
			return err
		}

		if _, err := qtx.MarkLinesPaid(ctx, id, now); err != nil {
			return err
		}

		affected, err := qtx.TransitionRun(ctx, id, RunStatusApproved, RunStatusPaid, req.Version, map[string]any{
			"total_gross":      totals.TotalGross,
			"total_deductions": totals.TotalDeductions,
			"total_net":        totals.TotalNet,
			"finalized_at":     now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return payrollerrors.ErrConcurrentModification
		}

		finalized, err := kafka.NewOutboxMessage(events.TopicPayrollRunFinalized, id, events.PayrollRunFinalized{
			RunID:       id,
			CompanyID:   companyID,
			PeriodMonth: run.PeriodMonth,
			PeriodYear:  run.PeriodYear,
			LineCount:   len(lines),
			TotalNet:    totals.TotalNet,
			FinalizedAt: now,
		})
		if err != nil {
			return err
		}
		if err := qoutbox.Enqueue(ctx, finalized); err != nil {
			return err
		}

		for _, line := range lines {
			requested, err := kafka.NewOutboxMessage(events.TopicPayslipRequested, line.ID.String(), events.PayslipRequested{
				PayrollLineID: line.ID.String(),
				RunID:         id,
				CompanyID:     companyID,
				EmployeeID:    line.EmployeeID.String(),
				RequestedAt:   now,
			})
			if err != nil {
				return err
			}
			if err := qoutbox.Enqueue(ctx, requested); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return RunResponse{}, err
	}

	after, err := s.GetByID(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}

	if err := s.auditor.Record(ctx, companyID, "payroll_run", id, "FINALIZED", before, after); err != nil {
		return RunResponse{}, err
	}

	return after, nil
}

func (s *service) Cancel(
	ctx context.Context,
	companyID, actorID, id string,
	req CancelRequest,
) (RunResponse, error) {
	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RunResponse{}, payrollerrors.ErrRunNotFound
		}
		return RunResponse{}, err
	}
	if !CanTransition(run.Status, RunStatusCancelled) {
		return RunResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	before := mapRunToResponse(*run, nil)

	now := time.Now().UTC()
	affected, err := s.repo.TransitionRun(ctx, id, run.Status, RunStatusCancelled, req.Version, map[string]any{
		"cancelled_at": now,
	})
	if err != nil {
		return RunResponse{}, err
	}
	if affected == 0 {
		return RunResponse{}, payrollerrors.ErrConcurrentModification
	}

	after, err := s.GetByID(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}

	if err := s.auditor.Record(ctx, companyID, "payroll_run", id, "CANCELLED", before, after); err != nil {
		return RunResponse{}, err
	}

	return after, nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	run, err := s.repo.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payrollerrors.ErrRunNotFound
		}
		return err
	}
	if run.Status != RunStatusDraft {
		return payrollerrors.ErrNotDeletable
	}

	if err := s.repo.DeleteRun(ctx, id); err != nil {
		return err
	}

	return s.auditor.Record(ctx, companyID, "payroll_run", id, "DELETED", mapRunToResponse(*run, nil), nil)
}

func (s *service) GetLines(
	ctx context.Context,
	companyID, runID string,
	filter LineFilterRequest,
) ([]LineResponse, error) {
	if _, err := s.repo.FindRunByIDAndCompany(ctx, companyID, runID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollerrors.ErrRunNotFound
		}
		return nil, err
	}

	lines, err := s.repo.ListLines(ctx, runID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]LineResponse, len(lines))
	for i, line := range lines {
		resp[i] = mapLineToResponse(line)
	}
	return resp, nil
}

func (s *service) GetLine(ctx context.Context, companyID, lineID string) (LineResponse, error) {
	line, err := s.repo.FindLineByIDAndCompany(ctx, companyID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LineResponse{}, payrollerrors.ErrLineNotFound
		}
		return LineResponse{}, err
	}
	return mapLineToResponse(*line), nil
}

// toCalcSnapshot converts the stored snapshot into the engine's input,
// parsing stored formulas up front so a bad formula fails the line before
// any math happens.
func toCalcSnapshot(snapshot compensation.CompensationSnapshot) (calculation.Snapshot, error) {
	out := calculation.Snapshot{
		EmployeeID:   snapshot.EmployeeID.String(),
		AnnualCTC:    snapshot.AnnualCTC,
		MonthlyGross: snapshot.MonthlyGross,
		Components:   make([]calculation.Component, len(snapshot.Allocations)),
	}

	for i, alloc := range snapshot.Allocations {
		comp := calculation.Component{
			ComponentID:     alloc.ComponentID.String(),
			Code:            alloc.ComponentCode,
			Name:            alloc.ComponentName,
			Kind:            alloc.Kind,
			CalcMode:        alloc.CalcMode,
			CalculationBase: alloc.CalculationBase,
			Taxable:         alloc.Taxable,
		}
		if alloc.Amount != nil {
			comp.Amount = *alloc.Amount
		}
		if alloc.Percentage.Valid {
			comp.Percentage = alloc.Percentage.Decimal
		}
		if alloc.CalcMode == compensation.CalcModeFormula && alloc.Formula != nil {
			expr, err := calculation.ParseExpression(*alloc.Formula)
			if err != nil {
				return calculation.Snapshot{}, err
			}
			comp.Formula = expr
		}
		out.Components[i] = comp
	}

	return out, nil
}

// dueToCalcEvents flattens due ad-hoc events for the engine. A loan
// contributes exactly one installment: its earliest pending one due inside
// the period.
func dueToCalcEvents(due []adhocevent.AdHocEvent, periodStart, periodEnd time.Time) []calculation.Event {
	out := make([]calculation.Event, 0, len(due))
	for _, ev := range due {
		switch ev.Type {
		case adhocevent.TypeLoan:
			for _, inst := range ev.Installments {
				if inst.Status != adhocevent.InstallmentPending {
					continue
				}
				if inst.DueDate.Before(periodStart) || inst.DueDate.After(periodEnd) {
					continue
				}
				out = append(out, calculation.Event{
					EventID:       ev.ID.String(),
					Type:          calculation.EventLoan,
					Description:   ev.Description,
					Amount:        inst.DueAmount,
					InstallmentID: inst.ID.String(),
				})
				break
			}
		case adhocevent.TypeReimbursement:
			out = append(out, calculation.Event{
				EventID:     ev.ID.String(),
				Type:        calculation.EventReimbursement,
				Description: ev.Description,
				Amount:      ev.Amount,
			})
		default:
			out = append(out, calculation.Event{
				EventID:     ev.ID.String(),
				Type:        calculation.EventBonus,
				Description: ev.Description,
				Amount:      ev.Amount,
			})
		}
	}
	return out
}

func detailsFromResult(lineID uuid.UUID, details []calculation.Detail) []LineComponentDetail {
	out := make([]LineComponentDetail, len(details))
	for i, d := range details {
		entry := LineComponentDetail{
			ID:       uuid.New(),
			LineID:   lineID,
			Position: i,
			Code:     d.Code,
			Name:     d.Name,
			Kind:     d.Kind,
			Amount:   d.Amount,
			Taxable:  d.Taxable,
		}
		if d.ComponentID != "" {
			if parsed, err := uuid.Parse(d.ComponentID); err == nil {
				entry.ComponentID = &parsed
			}
		}
		if d.SourceEventID != "" {
			if parsed, err := uuid.Parse(d.SourceEventID); err == nil {
				entry.SourceEventID = &parsed
			}
		}
		if d.InstallmentID != "" {
			if parsed, err := uuid.Parse(d.InstallmentID); err == nil {
				entry.InstallmentID = &parsed
			}
		}
		out[i] = entry
	}
	return out
}

func mapRunToResponse(run PayrollRun, counts map[string]int64) RunResponse {
	resp := RunResponse{
		ID:              run.ID.String(),
		PeriodMonth:     run.PeriodMonth,
		PeriodYear:      run.PeriodYear,
		PeriodStart:     run.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       run.PeriodEnd.Format("2006-01-02"),
		PaymentDate:     run.PaymentDate.Format("2006-01-02"),
		Status:          run.Status,
		Version:         run.Version,
		TotalGross:      run.TotalGross,
		TotalDeductions: run.TotalDeductions,
		TotalNet:        run.TotalNet,
		LineCounts:      counts,
	}

	if run.ApprovedBy != nil {
		v := run.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if run.ApprovedAt != nil {
		v := run.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if run.FinalizedAt != nil {
		v := run.FinalizedAt.Format(time.RFC3339)
		resp.FinalizedAt = &v
	}

	return resp
}

func mapLineToResponse(line PayrollLine) LineResponse {
	resp := LineResponse{
		ID:              line.ID.String(),
		RunID:           line.RunID.String(),
		EmployeeID:      line.EmployeeID.String(),
		WorkingDays:     line.WorkingDays,
		PresentDays:     line.PresentDays,
		PaidLeaveDays:   line.PaidLeaveDays,
		UnpaidLeaveDays: line.UnpaidLeaveDays,
		OvertimeHours:   line.OvertimeHours,
		GrossSalary:     line.GrossSalary,
		TotalEarnings:   line.TotalEarnings,
		TotalDeductions: line.TotalDeductions,
		TaxableIncome:   line.TaxableIncome,
		TaxDeducted:     line.TaxDeducted,
		NetSalary:       line.NetSalary,
		Status:          line.Status,
		HoldReason:      line.HoldReason,
	}

	if len(line.Details) > 0 {
		resp.Details = make([]DetailResponse, len(line.Details))
		for i, d := range line.Details {
			dr := DetailResponse{
				Code:    d.Code,
				Name:    d.Name,
				Kind:    d.Kind,
				Amount:  d.Amount,
				Taxable: d.Taxable,
			}
			if d.SourceEventID != nil {
				v := d.SourceEventID.String()
				dr.SourceEventID = &v
			}
			if d.InstallmentID != nil {
				v := d.InstallmentID.String()
				dr.InstallmentID = &v
			}
			resp.Details[i] = dr
		}
	}

	return resp
}
