package adhocevent

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

	adhocerrors "go-payroll/internal/adhocevent/errors"
	"go-payroll/internal/employee"
)

var (
	testCompanyID  = uuid.New()
	testEmployeeID = uuid.New()
	testActorID    = uuid.New()
)

type fakeRepo struct {
	createFn  func(ctx context.Context, event *AdHocEvent) error
	findFn    func(ctx context.Context, companyID, id string) (*AdHocEvent, error)
	listFn    func(ctx context.Context, companyID string, filter ListFilterRequest) ([]AdHocEvent, error)
	updateFn  func(ctx context.Context, event *AdHocEvent) error
	listDueFn func(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) ([]AdHocEvent, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, event *AdHocEvent) error {
	return f.createFn(ctx, event)
}
func (f *fakeRepo) FindByIDAndCompany(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
	return f.findFn(ctx, companyID, id)
}
func (f *fakeRepo) ListByCompany(ctx context.Context, companyID string, filter ListFilterRequest) ([]AdHocEvent, error) {
	return f.listFn(ctx, companyID, filter)
}
func (f *fakeRepo) Update(ctx context.Context, event *AdHocEvent) error {
	return f.updateFn(ctx, event)
}
func (f *fakeRepo) ListDueForPeriod(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) ([]AdHocEvent, error) {
	return f.listDueFn(ctx, companyID, employeeID, periodStart, periodEnd)
}
func (f *fakeRepo) MarkInstallmentPaid(ctx context.Context, installmentID, payrollLineID string, paidAt time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) MarkEventConsumed(ctx context.Context, eventID string, consumedAt time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) CountPendingInstallments(ctx context.Context, eventID string) (int64, error) {
	return 0, nil
}

type fakeDirectory struct {
	belongsFn func(ctx context.Context, companyID, employeeID string) (bool, error)
}

func (f *fakeDirectory) ListEligible(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeDirectory) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return nil, nil
}
func (f *fakeDirectory) BelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	return f.belongsFn(ctx, companyID, employeeID)
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

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return db, mock
}

func memberDirectory() *fakeDirectory {
	return &fakeDirectory{
		belongsFn: func(ctx context.Context, companyID, employeeID string) (bool, error) { return true, nil },
	}
}

func TestCreateLoan_BuildsScheduleSummingToTotal(t *testing.T) {
	db, _ := newGormMock(t)

	var created *AdHocEvent
	repo := &fakeRepo{
		createFn: func(ctx context.Context, event *AdHocEvent) error {
			created = event
			return nil
		},
	}
	svc := NewService(db, repo, memberDirectory(), &fakeAuditor{})

	resp, err := svc.CreateLoan(context.Background(), testCompanyID.String(), testActorID.String(), CreateLoanRequest{
		EmployeeID:       testEmployeeID.String(),
		Principal:        100_000_01,
		InterestAmount:   0,
		InstallmentCount: 3,
		FirstDueDate:     "2025-05-15",
		Description:      "Laptop loan",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	require.Len(t, created.Installments, 3)

	var sum int64
	for _, inst := range created.Installments {
		sum += inst.DueAmount
		assert.Equal(t, InstallmentPending, inst.Status)
	}
	assert.Equal(t, int64(100_000_01), sum)

	// remainder cent lands on the first installment
	assert.Equal(t, int64(33_333_35), created.Installments[0].DueAmount)
	assert.Equal(t, int64(33_333_33), created.Installments[1].DueAmount)
	assert.Equal(t, int64(33_333_33), created.Installments[2].DueAmount)

	assert.Equal(t, "2025-05-15", created.Installments[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, "2025-06-15", created.Installments[1].DueDate.Format("2006-01-02"))
	assert.Equal(t, StatusPending, resp.Status)
}

func TestCreateLoan_InterestAddedOnTopOfPrincipal(t *testing.T) {
	db, _ := newGormMock(t)

	var created *AdHocEvent
	repo := &fakeRepo{
		createFn: func(ctx context.Context, event *AdHocEvent) error {
			created = event
			return nil
		},
	}
	svc := NewService(db, repo, memberDirectory(), &fakeAuditor{})

	_, err := svc.CreateLoan(context.Background(), testCompanyID.String(), testActorID.String(), CreateLoanRequest{
		EmployeeID:       testEmployeeID.String(),
		Principal:        120_000_00,
		InterestAmount:   6_000_00,
		InstallmentCount: 12,
		FirstDueDate:     "2025-07-31",
	})
	require.NoError(t, err)

	var sum int64
	for _, inst := range created.Installments {
		sum += inst.DueAmount
	}
	assert.Equal(t, int64(126_000_00), sum)
	assert.Equal(t, int64(120_000_00), created.Amount)
}

func TestCreateBonus_RejectsEmployeeOutsideCompany(t *testing.T) {
	db, _ := newGormMock(t)

	svc := NewService(db, &fakeRepo{}, &fakeDirectory{
		belongsFn: func(ctx context.Context, companyID, employeeID string) (bool, error) { return false, nil },
	}, &fakeAuditor{})

	_, err := svc.CreateBonus(context.Background(), testCompanyID.String(), testActorID.String(), CreateBonusRequest{
		EmployeeID:      testEmployeeID.String(),
		Amount:          50_000_00,
		ApplicableMonth: 6,
		ApplicableYear:  2025,
	})
	assert.ErrorIs(t, err, adhocerrors.ErrEmployeeNotInCompany)
}

func TestApprove_LoanMovesToScheduled(t *testing.T) {
	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	event := &AdHocEvent{
		ID:         uuid.New(),
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Type:       TypeLoan,
		Amount:     100_000_00,
		Status:     StatusPending,
	}

	var updated *AdHocEvent
	repo := &fakeRepo{
		findFn: func(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
			return event, nil
		},
		updateFn: func(ctx context.Context, e *AdHocEvent) error {
			updated = e
			return nil
		},
	}
	auditor := &fakeAuditor{}
	svc := NewService(db, repo, memberDirectory(), auditor)

	resp, err := svc.Approve(context.Background(), testCompanyID.String(), testActorID.String(), event.ID.String())
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, resp.Status)
	require.NotNil(t, updated)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, testActorID, *updated.ApprovedBy)
	assert.Equal(t, []string{"APPROVED"}, auditor.actions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_BonusMovesToApproved(t *testing.T) {
	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	event := &AdHocEvent{
		ID:     uuid.New(),
		Type:   TypeBonus,
		Status: StatusPending,
	}

	repo := &fakeRepo{
		findFn: func(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
			return event, nil
		},
		updateFn: func(ctx context.Context, e *AdHocEvent) error { return nil },
	}
	svc := NewService(db, repo, memberDirectory(), &fakeAuditor{})

	resp, err := svc.Approve(context.Background(), testCompanyID.String(), testActorID.String(), event.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_RejectsNonPendingEvent(t *testing.T) {
	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	event := &AdHocEvent{
		ID:     uuid.New(),
		Type:   TypeBonus,
		Status: StatusConsumed,
	}

	repo := &fakeRepo{
		findFn: func(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
			return event, nil
		},
	}
	svc := NewService(db, repo, memberDirectory(), &fakeAuditor{})

	_, err := svc.Approve(context.Background(), testCompanyID.String(), testActorID.String(), event.ID.String())
	assert.ErrorIs(t, err, adhocerrors.ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_SetsReason(t *testing.T) {
	db, mock := newGormMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	event := &AdHocEvent{
		ID:     uuid.New(),
		Type:   TypeReimbursement,
		Status: StatusPending,
	}

	var updated *AdHocEvent
	repo := &fakeRepo{
		findFn: func(ctx context.Context, companyID, id string) (*AdHocEvent, error) {
			return event, nil
		},
		updateFn: func(ctx context.Context, e *AdHocEvent) error {
			updated = e
			return nil
		},
	}
	auditor := &fakeAuditor{}
	svc := NewService(db, repo, memberDirectory(), auditor)

	resp, err := svc.Reject(context.Background(), testCompanyID.String(), testActorID.String(), event.ID.String(), RejectRequest{Reason: "missing receipt"})
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, resp.Status)
	require.NotNil(t, updated.RejectReason)
	assert.Equal(t, "missing receipt", *updated.RejectReason)
	assert.Equal(t, []string{"REJECTED"}, auditor.actions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoan_RejectsBadDueDate(t *testing.T) {
	db, _ := newGormMock(t)

	svc := NewService(db, &fakeRepo{}, memberDirectory(), &fakeAuditor{})

	_, err := svc.CreateLoan(context.Background(), testCompanyID.String(), testActorID.String(), CreateLoanRequest{
		EmployeeID:       testEmployeeID.String(),
		Principal:        100_00,
		InstallmentCount: 2,
		FirstDueDate:     "31-05-2025",
	})
	assert.ErrorIs(t, err, adhocerrors.ErrInvalidDateFormat)
}
