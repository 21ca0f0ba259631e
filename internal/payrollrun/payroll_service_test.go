package payrollrun

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-payroll/internal/adhocevent"
	"go-payroll/internal/attendance"
	"go-payroll/internal/calculation"
	"go-payroll/internal/compensation"
	"go-payroll/internal/employee"
	"go-payroll/internal/messaging/kafka"
	payrollerrors "go-payroll/internal/payrollrun/errors"
)

var (
	testCompanyID  = uuid.New()
	testEmployeeID = uuid.New()
	testActorID    = uuid.New()
)

type fakeRepo struct {
	createRunFn          func(ctx context.Context, run *PayrollRun) error
	findRunFn            func(ctx context.Context, companyID, id string) (*PayrollRun, error)
	findRunByPeriodFn    func(ctx context.Context, companyID string, month, year int) (*PayrollRun, error)
	listRunsFn           func(ctx context.Context, companyID string, filter ListFilterRequest) ([]PayrollRun, int64, error)
	transitionRunFn      func(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error)
	deleteRunFn          func(ctx context.Context, runID string) error
	createLinesFn        func(ctx context.Context, lines []PayrollLine) error
	findLineFn           func(ctx context.Context, companyID, id string) (*PayrollLine, error)
	listLinesFn          func(ctx context.Context, runID string, filter LineFilterRequest) ([]PayrollLine, error)
	listPendingFn        func(ctx context.Context, runID string) ([]PayrollLine, error)
	listByStatusFn       func(ctx context.Context, runID, status string) ([]PayrollLine, error)
	saveComputedFn       func(ctx context.Context, line *PayrollLine) (int64, error)
	holdLineFn           func(ctx context.Context, lineID, reason string) error
	markLinesPaidFn      func(ctx context.Context, runID string, paidAt time.Time) (int64, error)
	countLinesByStatusFn func(ctx context.Context, runID string) (map[string]int64, error)
	totalsForRunFn       func(ctx context.Context, runID string) (RunTotals, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }
func (f *fakeRepo) CreateRun(ctx context.Context, run *PayrollRun) error {
	return f.createRunFn(ctx, run)
}
func (f *fakeRepo) FindRunByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollRun, error) {
	return f.findRunFn(ctx, companyID, id)
}
func (f *fakeRepo) FindRunByPeriod(ctx context.Context, companyID string, month, year int) (*PayrollRun, error) {
	return f.findRunByPeriodFn(ctx, companyID, month, year)
}
func (f *fakeRepo) ListRuns(ctx context.Context, companyID string, filter ListFilterRequest) ([]PayrollRun, int64, error) {
	return f.listRunsFn(ctx, companyID, filter)
}
func (f *fakeRepo) TransitionRun(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error) {
	return f.transitionRunFn(ctx, runID, from, to, version, extra)
}
func (f *fakeRepo) DeleteRun(ctx context.Context, runID string) error {
	return f.deleteRunFn(ctx, runID)
}
func (f *fakeRepo) CreateLines(ctx context.Context, lines []PayrollLine) error {
	return f.createLinesFn(ctx, lines)
}
func (f *fakeRepo) FindLineByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollLine, error) {
	return f.findLineFn(ctx, companyID, id)
}
func (f *fakeRepo) ListLines(ctx context.Context, runID string, filter LineFilterRequest) ([]PayrollLine, error) {
	return f.listLinesFn(ctx, runID, filter)
}
func (f *fakeRepo) ListPendingLines(ctx context.Context, runID string) ([]PayrollLine, error) {
	return f.listPendingFn(ctx, runID)
}
func (f *fakeRepo) ListLinesByStatus(ctx context.Context, runID, status string) ([]PayrollLine, error) {
	return f.listByStatusFn(ctx, runID, status)
}
func (f *fakeRepo) SaveComputedLine(ctx context.Context, line *PayrollLine) (int64, error) {
	return f.saveComputedFn(ctx, line)
}
func (f *fakeRepo) HoldLine(ctx context.Context, lineID, reason string) error {
	return f.holdLineFn(ctx, lineID, reason)
}
func (f *fakeRepo) MarkLinesPaid(ctx context.Context, runID string, paidAt time.Time) (int64, error) {
	return f.markLinesPaidFn(ctx, runID, paidAt)
}
func (f *fakeRepo) CountLinesByStatus(ctx context.Context, runID string) (map[string]int64, error) {
	return f.countLinesByStatusFn(ctx, runID)
}
func (f *fakeRepo) TotalsForRun(ctx context.Context, runID string) (RunTotals, error) {
	return f.totalsForRunFn(ctx, runID)
}

type fakeDirectory struct {
	listEligibleFn func(ctx context.Context, companyID string) ([]employee.Employee, error)
}

func (f *fakeDirectory) ListEligible(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return f.listEligibleFn(ctx, companyID)
}
func (f *fakeDirectory) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDirectory) BelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	return true, nil
}

type fakeComps struct {
	findCurrentFn func(ctx context.Context, companyID, employeeID string, asOf time.Time) (*compensation.CompensationSnapshot, error)
}

func (f *fakeComps) WithTx(tx *gorm.DB) compensation.Repository { return f }
func (f *fakeComps) CreateComponent(ctx context.Context, c *compensation.CompensationComponent) error {
	return nil
}
func (f *fakeComps) ListComponents(ctx context.Context, companyID string) ([]compensation.CompensationComponent, error) {
	return nil, nil
}
func (f *fakeComps) FindComponents(ctx context.Context, companyID string, ids []string) ([]compensation.CompensationComponent, error) {
	return nil, nil
}
func (f *fakeComps) CreateSnapshot(ctx context.Context, s *compensation.CompensationSnapshot) error {
	return nil
}
func (f *fakeComps) FindCurrent(ctx context.Context, companyID, employeeID string, asOf time.Time) (*compensation.CompensationSnapshot, error) {
	return f.findCurrentFn(ctx, companyID, employeeID, asOf)
}
func (f *fakeComps) FindOpenEnded(ctx context.Context, companyID, employeeID string) (*compensation.CompensationSnapshot, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeComps) CloseSnapshot(ctx context.Context, snapshotID string, effectiveTo time.Time) error {
	return nil
}
func (f *fakeComps) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]compensation.CompensationSnapshot, error) {
	return nil, nil
}

type fakeSummaries struct {
	getFn func(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (attendance.MonthlySummary, error)
}

func (f *fakeSummaries) GetMonthlySummary(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (attendance.MonthlySummary, error) {
	return f.getFn(ctx, companyID, employeeID, periodStart, periodEnd)
}

type fakeAdhoc struct {
	listDueFn          func(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) ([]adhocevent.AdHocEvent, error)
	markInstallmentFn  func(ctx context.Context, installmentID, payrollLineID string, paidAt time.Time) (int64, error)
	markConsumedFn     func(ctx context.Context, eventID string, consumedAt time.Time) (int64, error)
	countPendingFn     func(ctx context.Context, eventID string) (int64, error)
	markedInstallments []string
	consumedEvents     []string
}

func (f *fakeAdhoc) WithTx(tx *gorm.DB) adhocevent.Repository { return f }
func (f *fakeAdhoc) Create(ctx context.Context, e *adhocevent.AdHocEvent) error {
	return nil
}
func (f *fakeAdhoc) FindByIDAndCompany(ctx context.Context, companyID, id string) (*adhocevent.AdHocEvent, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAdhoc) ListByCompany(ctx context.Context, companyID string, filter adhocevent.ListFilterRequest) ([]adhocevent.AdHocEvent, error) {
	return nil, nil
}
func (f *fakeAdhoc) Update(ctx context.Context, e *adhocevent.AdHocEvent) error {
	return nil
}
func (f *fakeAdhoc) ListDueForPeriod(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) ([]adhocevent.AdHocEvent, error) {
	if f.listDueFn == nil {
		return nil, nil
	}
	return f.listDueFn(ctx, companyID, employeeID, periodStart, periodEnd)
}
func (f *fakeAdhoc) MarkInstallmentPaid(ctx context.Context, installmentID, payrollLineID string, paidAt time.Time) (int64, error) {
	f.markedInstallments = append(f.markedInstallments, installmentID)
	if f.markInstallmentFn != nil {
		return f.markInstallmentFn(ctx, installmentID, payrollLineID, paidAt)
	}
	return 1, nil
}
func (f *fakeAdhoc) MarkEventConsumed(ctx context.Context, eventID string, consumedAt time.Time) (int64, error) {
	f.consumedEvents = append(f.consumedEvents, eventID)
	if f.markConsumedFn != nil {
		return f.markConsumedFn(ctx, eventID, consumedAt)
	}
	return 1, nil
}
func (f *fakeAdhoc) CountPendingInstallments(ctx context.Context, eventID string) (int64, error) {
	if f.countPendingFn != nil {
		return f.countPendingFn(ctx, eventID)
	}
	return 0, nil
}

type fakeOutbox struct {
	enqueued []*kafka.OutboxMessage
}

func (f *fakeOutbox) WithTx(tx *gorm.DB) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Enqueue(ctx context.Context, msg *kafka.OutboxMessage) error {
	f.enqueued = append(f.enqueued, msg)
	return nil
}
func (f *fakeOutbox) FetchPending(ctx context.Context, limit int) ([]kafka.OutboxMessage, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return nil
}
func (f *fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return nil
}

type fakeAuditor struct {
	actions []string
}

func (f *fakeAuditor) Record(ctx context.Context, companyID, entityType, entityID, action string, before, after any) error {
	f.actions = append(f.actions, action)
	return nil
}

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gdb, mock
}

type testDeps struct {
	repo    *fakeRepo
	dir     *fakeDirectory
	comps   *fakeComps
	summ    *fakeSummaries
	adhoc   *fakeAdhoc
	outbox  *fakeOutbox
	auditor *fakeAuditor
}

func newTestService(db *gorm.DB, deps testDeps) Service {
	return NewService(
		db,
		deps.repo,
		deps.dir,
		deps.comps,
		deps.summ,
		deps.adhoc,
		deps.outbox,
		deps.auditor,
		calculation.NoTaxStrategy{},
		2,
	)
}

func draftRun() *PayrollRun {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &PayrollRun{
		ID:          uuid.New(),
		CompanyID:   testCompanyID,
		PeriodMonth: 6,
		PeriodYear:  2025,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, -1),
		PaymentDate: start.AddDate(0, 1, -1),
		Status:      RunStatusDraft,
		Version:     1,
		CreatedBy:   testActorID,
	}
}

func simpleSnapshot() *compensation.CompensationSnapshot {
	return &compensation.CompensationSnapshot{
		ID:           uuid.New(),
		CompanyID:    testCompanyID,
		EmployeeID:   testEmployeeID,
		AnnualCTC:    3600000,
		MonthlyGross: 300000,
	}
}

func TestCreate_RejectsDuplicatePeriod(t *testing.T) {
	repo := &fakeRepo{
		findRunByPeriodFn: func(ctx context.Context, companyID string, month, year int) (*PayrollRun, error) {
			return draftRun(), nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Create(context.Background(), testCompanyID.String(), testActorID.String(), CreateRunRequest{
		PeriodMonth: 6,
		PeriodYear:  2025,
	})
	assert.ErrorIs(t, err, payrollerrors.ErrPeriodExists)
}

func TestCreate_BuildsDraftWithPeriodBounds(t *testing.T) {
	var created *PayrollRun
	repo := &fakeRepo{
		findRunByPeriodFn: func(ctx context.Context, companyID string, month, year int) (*PayrollRun, error) {
			return nil, gorm.ErrRecordNotFound
		},
		createRunFn: func(ctx context.Context, run *PayrollRun) error {
			created = run
			return nil
		},
	}
	auditor := &fakeAuditor{}
	svc := newTestService(nil, testDeps{repo: repo, auditor: auditor})

	resp, err := svc.Create(context.Background(), testCompanyID.String(), testActorID.String(), CreateRunRequest{
		PeriodMonth: 2,
		PeriodYear:  2025,
	})
	require.NoError(t, err)

	assert.Equal(t, RunStatusDraft, created.Status)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "2025-02-01", created.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2025-02-28", created.PeriodEnd.Format("2006-01-02"))
	assert.Equal(t, RunStatusDraft, resp.Status)
	assert.Contains(t, auditor.actions, "CREATED")
}

func TestProcess_RejectsWrongStatus(t *testing.T) {
	run := draftRun()
	run.Status = RunStatusApproved
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Process(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusTransition)
}

func TestProcess_StaleVersionLosesGuardedUpdate(t *testing.T) {
	run := draftRun()
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
		transitionRunFn: func(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Process(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	assert.ErrorIs(t, err, payrollerrors.ErrConcurrentModification)
}

func TestProcess_ComputesAndHoldsLines(t *testing.T) {
	run := draftRun()
	withComp := testEmployeeID
	withoutComp := uuid.New()

	pending := []PayrollLine{
		{ID: uuid.New(), RunID: run.ID, CompanyID: testCompanyID, EmployeeID: withComp, Status: LineStatusPending},
		{ID: uuid.New(), RunID: run.ID, CompanyID: testCompanyID, EmployeeID: withoutComp, Status: LineStatusPending},
	}

	var saved []*PayrollLine
	var held []string
	transitions := map[string]string{}

	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
		transitionRunFn: func(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error) {
			transitions[from] = to
			return 1, nil
		},
		createLinesFn: func(ctx context.Context, lines []PayrollLine) error { return nil },
		listPendingFn: func(ctx context.Context, runID string) ([]PayrollLine, error) {
			return pending, nil
		},
		saveComputedFn: func(ctx context.Context, line *PayrollLine) (int64, error) {
			saved = append(saved, line)
			return 1, nil
		},
		holdLineFn: func(ctx context.Context, lineID, reason string) error {
			held = append(held, reason)
			return nil
		},
		countLinesByStatusFn: func(ctx context.Context, runID string) (map[string]int64, error) {
			return map[string]int64{LineStatusProcessed: 1, LineStatusHold: 1}, nil
		},
		totalsForRunFn: func(ctx context.Context, runID string) (RunTotals, error) {
			return RunTotals{TotalGross: 272727, TotalNet: 272727}, nil
		},
	}
	comps := &fakeComps{
		findCurrentFn: func(ctx context.Context, companyID, employeeID string, asOf time.Time) (*compensation.CompensationSnapshot, error) {
			if employeeID == withComp.String() {
				return simpleSnapshot(), nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	summ := &fakeSummaries{
		getFn: func(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (attendance.MonthlySummary, error) {
			return attendance.MonthlySummary{WorkingDays: 22, PresentDays: 18, PaidLeaveDays: 2, UnpaidLeaveDays: 2}, nil
		},
	}
	dir := &fakeDirectory{
		listEligibleFn: func(ctx context.Context, companyID string) ([]employee.Employee, error) {
			return []employee.Employee{{ID: withComp}, {ID: withoutComp}}, nil
		},
	}
	auditor := &fakeAuditor{}

	svc := newTestService(nil, testDeps{
		repo: repo, dir: dir, comps: comps, summ: summ,
		adhoc: &fakeAdhoc{}, outbox: &fakeOutbox{}, auditor: auditor,
	})

	summary, err := svc.Process(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Held)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, saved, 1)
	// 3000.00 * 20/22 with banker's rounding
	assert.Equal(t, int64(272727), saved[0].GrossSalary)
	assert.Equal(t, int64(272727), saved[0].NetSalary)

	require.Len(t, held, 1)
	assert.Equal(t, HoldNoCompensation, held[0])

	assert.Equal(t, RunStatusProcessing, transitions[RunStatusDraft])
	assert.Equal(t, RunStatusCalculated, transitions[RunStatusProcessing])
}

func TestProcess_ResumeSkipsAlreadyProcessedLines(t *testing.T) {
	run := draftRun()
	run.Status = RunStatusProcessing

	pending := []PayrollLine{
		{ID: uuid.New(), RunID: run.ID, CompanyID: testCompanyID, EmployeeID: testEmployeeID, Status: LineStatusPending},
	}

	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
		transitionRunFn: func(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error) {
			return 1, nil
		},
		createLinesFn: func(ctx context.Context, lines []PayrollLine) error { return nil },
		listPendingFn: func(ctx context.Context, runID string) ([]PayrollLine, error) {
			return pending, nil
		},
		saveComputedFn: func(ctx context.Context, line *PayrollLine) (int64, error) {
			// Another pass already wrote this line; the guarded update is a
			// no-op.
			return 0, nil
		},
		countLinesByStatusFn: func(ctx context.Context, runID string) (map[string]int64, error) {
			return map[string]int64{LineStatusProcessed: 1}, nil
		},
		totalsForRunFn: func(ctx context.Context, runID string) (RunTotals, error) {
			return RunTotals{}, nil
		},
	}
	comps := &fakeComps{
		findCurrentFn: func(ctx context.Context, companyID, employeeID string, asOf time.Time) (*compensation.CompensationSnapshot, error) {
			return simpleSnapshot(), nil
		},
	}
	summ := &fakeSummaries{
		getFn: func(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (attendance.MonthlySummary, error) {
			return attendance.MonthlySummary{WorkingDays: 22, PresentDays: 22}, nil
		},
	}
	dir := &fakeDirectory{
		listEligibleFn: func(ctx context.Context, companyID string) ([]employee.Employee, error) {
			return []employee.Employee{{ID: testEmployeeID}}, nil
		},
	}

	svc := newTestService(nil, testDeps{
		repo: repo, dir: dir, comps: comps, summ: summ,
		adhoc: &fakeAdhoc{}, outbox: &fakeOutbox{}, auditor: &fakeAuditor{},
	})

	summary, err := svc.Process(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
}

func TestApprove_RequiresCalculatedStatus(t *testing.T) {
	run := draftRun()
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Approve(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusTransition)
}

func finalizeFixture() (*PayrollRun, []PayrollLine, uuid.UUID, uuid.UUID, uuid.UUID) {
	run := draftRun()
	run.Status = RunStatusApproved
	run.Version = 4

	loanEventID := uuid.New()
	installmentID := uuid.New()
	bonusEventID := uuid.New()

	line := PayrollLine{
		ID:            uuid.New(),
		RunID:         run.ID,
		CompanyID:     testCompanyID,
		EmployeeID:    testEmployeeID,
		Status:        LineStatusProcessed,
		TotalEarnings: 350000,
		NetSalary:     330000,
		Details: []LineComponentDetail{
			{Code: "GROSS_SALARY", Kind: "EARNING", Amount: 300000},
			{Code: "BONUS", Kind: "EARNING", Amount: 50000, SourceEventID: &bonusEventID},
			{Code: "LOAN_REPAYMENT", Kind: "DEDUCTION", Amount: 20000, SourceEventID: &loanEventID, InstallmentID: &installmentID},
		},
	}

	return run, []PayrollLine{line}, loanEventID, installmentID, bonusEventID
}

func TestFinalize_ConsumesEventsAndLocksTotals(t *testing.T) {
	run, lines, loanEventID, installmentID, bonusEventID := finalizeFixture()

	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var lockedTotals map[string]any
	var markedPaid bool

	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
		listByStatusFn: func(ctx context.Context, runID, status string) ([]PayrollLine, error) {
			require.Equal(t, LineStatusProcessed, status)
			return lines, nil
		},
		totalsForRunFn: func(ctx context.Context, runID string) (RunTotals, error) {
			return RunTotals{TotalGross: 350000, TotalDeductions: 20000, TotalNet: 330000}, nil
		},
		markLinesPaidFn: func(ctx context.Context, runID string, paidAt time.Time) (int64, error) {
			markedPaid = true
			return 1, nil
		},
		transitionRunFn: func(ctx context.Context, runID, from, to string, version int, extra map[string]any) (int64, error) {
			require.Equal(t, RunStatusApproved, from)
			require.Equal(t, RunStatusPaid, to)
			require.Equal(t, 4, version)
			lockedTotals = extra
			return 1, nil
		},
		countLinesByStatusFn: func(ctx context.Context, runID string) (map[string]int64, error) {
			return map[string]int64{LineStatusPaid: 1}, nil
		},
	}
	adhoc := &fakeAdhoc{
		countPendingFn: func(ctx context.Context, eventID string) (int64, error) {
			return 0, nil
		},
	}
	outbox := &fakeOutbox{}
	auditor := &fakeAuditor{}

	svc := newTestService(db, testDeps{
		repo: repo, adhoc: adhoc, outbox: outbox, auditor: auditor,
	})

	// The run is PAID after finalize, so GetByID reads the locked totals.
	run.Status = RunStatusApproved
	_, err := svc.Finalize(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 4})
	require.NoError(t, err)

	assert.Equal(t, []string{installmentID.String()}, adhoc.markedInstallments)
	assert.Contains(t, adhoc.consumedEvents, bonusEventID.String())
	assert.Contains(t, adhoc.consumedEvents, loanEventID.String())
	assert.True(t, markedPaid)
	assert.Equal(t, int64(330000), lockedTotals["total_net"])

	// One run-finalized event plus one slip request per line.
	require.Len(t, outbox.enqueued, 2)
	assert.Contains(t, auditor.actions, "FINALIZED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_InstallmentConflictRollsBack(t *testing.T) {
	run, lines, _, _, _ := finalizeFixture()

	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
		listByStatusFn: func(ctx context.Context, runID, status string) ([]PayrollLine, error) {
			return lines, nil
		},
	}
	adhoc := &fakeAdhoc{
		markInstallmentFn: func(ctx context.Context, installmentID, payrollLineID string, paidAt time.Time) (int64, error) {
			// Someone already spent this installment.
			return 0, nil
		},
	}
	outbox := &fakeOutbox{}

	svc := newTestService(db, testDeps{
		repo: repo, adhoc: adhoc, outbox: outbox, auditor: &fakeAuditor{},
	})

	_, err := svc.Finalize(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 4})
	assert.ErrorIs(t, err, payrollerrors.ErrInstallmentConflict)
	assert.Empty(t, outbox.enqueued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_RequiresApprovedStatus(t *testing.T) {
	run := draftRun()
	run.Status = RunStatusCalculated
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Finalize(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), VersionedRequest{Version: 1})
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusTransition)
}

func TestCancel_OnlyFromDraftOrProcessing(t *testing.T) {
	run := draftRun()
	run.Status = RunStatusApproved
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	_, err := svc.Cancel(context.Background(), testCompanyID.String(), testActorID.String(), run.ID.String(), CancelRequest{Version: 1})
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatusTransition)
}

func TestDelete_OnlyDraft(t *testing.T) {
	run := draftRun()
	run.Status = RunStatusCalculated
	repo := &fakeRepo{
		findRunFn: func(ctx context.Context, companyID, id string) (*PayrollRun, error) {
			return run, nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	err := svc.Delete(context.Background(), testCompanyID.String(), run.ID.String())
	assert.ErrorIs(t, err, payrollerrors.ErrNotDeletable)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(RunStatusDraft, RunStatusProcessing))
	assert.True(t, CanTransition(RunStatusProcessing, RunStatusCancelled))
	assert.True(t, CanTransition(RunStatusApproved, RunStatusPaid))
	assert.False(t, CanTransition(RunStatusPaid, RunStatusDraft))
	assert.False(t, CanTransition(RunStatusCalculated, RunStatusPaid))
	assert.False(t, CanTransition(RunStatusCancelled, RunStatusProcessing))
}

func TestDueToCalcEvents_PicksOnlyInstallmentDueInPeriod(t *testing.T) {
	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	loan := adhocevent.AdHocEvent{
		ID:     uuid.New(),
		Type:   adhocevent.TypeLoan,
		Amount: 300_00,
		Installments: []adhocevent.LoanInstallment{
			{ID: uuid.New(), Sequence: 1, DueAmount: 100_00, DueDate: time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), Status: adhocevent.InstallmentPaid},
			{ID: uuid.New(), Sequence: 2, DueAmount: 100_00, DueDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), Status: adhocevent.InstallmentPending},
			{ID: uuid.New(), Sequence: 3, DueAmount: 100_00, DueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), Status: adhocevent.InstallmentPending},
		},
	}

	calcEvents := dueToCalcEvents([]adhocevent.AdHocEvent{loan}, periodStart, periodEnd)
	require.Len(t, calcEvents, 1)
	assert.Equal(t, calculation.EventLoan, calcEvents[0].Type)
	assert.Equal(t, int64(100_00), calcEvents[0].Amount)
	assert.Equal(t, loan.Installments[1].ID.String(), calcEvents[0].InstallmentID)
}

func TestCreate_AllowsNewRunAfterCancelledPeriod(t *testing.T) {
	// FindRunByPeriod skips cancelled runs, and the period index is partial
	// for the same reason, so the insert must not conflict either.
	var created *PayrollRun
	repo := &fakeRepo{
		findRunByPeriodFn: func(ctx context.Context, companyID string, month, year int) (*PayrollRun, error) {
			return nil, gorm.ErrRecordNotFound
		},
		createRunFn: func(ctx context.Context, run *PayrollRun) error {
			created = run
			return nil
		},
	}
	svc := newTestService(nil, testDeps{repo: repo, auditor: &fakeAuditor{}})

	resp, err := svc.Create(context.Background(), testCompanyID.String(), testActorID.String(), CreateRunRequest{
		PeriodMonth: 6,
		PeriodYear:  2025,
	})
	require.NoError(t, err)
	assert.Equal(t, RunStatusDraft, created.Status)
	assert.Equal(t, RunStatusDraft, resp.Status)
}

func TestCreate_RejectsMalformedActorID(t *testing.T) {
	svc := newTestService(nil, testDeps{repo: &fakeRepo{}, auditor: &fakeAuditor{}})

	_, err := svc.Create(context.Background(), testCompanyID.String(), "not-a-uuid", CreateRunRequest{
		PeriodMonth: 6,
		PeriodYear:  2025,
	})
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidIdentifier)
}

func TestFindRunByPeriod_ExcludesCancelledRuns(t *testing.T) {
	db, mock := newGormMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "payroll_runs" WHERE .*period_month = \$2 AND period_year = \$3.*status <> \$4`).
		WithArgs(testCompanyID.String(), 6, 2025, RunStatusCancelled, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindRunByPeriod(context.Background(), testCompanyID.String(), 6, 2025)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
