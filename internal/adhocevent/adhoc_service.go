package adhocevent

import (
	"context"
	"time"

	adhocerrors "go-payroll/internal/adhocevent/errors"
	"go-payroll/internal/audit"
	"go-payroll/internal/employee"
	"go-payroll/internal/shared/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	CreateBonus(ctx context.Context, companyID, actorID string, req CreateBonusRequest) (EventResponse, error)
	CreateLoan(ctx context.Context, companyID, actorID string, req CreateLoanRequest) (EventResponse, error)
	CreateReimbursement(ctx context.Context, companyID, actorID string, req CreateReimbursementRequest) (EventResponse, error)

	Approve(ctx context.Context, companyID, actorID, id string) (EventResponse, error)
	Reject(ctx context.Context, companyID, actorID, id string, req RejectRequest) (EventResponse, error)

	GetByID(ctx context.Context, companyID, id string) (EventResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilterRequest) ([]EventResponse, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	directory employee.Directory
	auditor   audit.Writer
}

func NewService(db *gorm.DB, repo Repository, directory employee.Directory, auditor audit.Writer) Service {
	return &service{
		db:        db,
		repo:      repo,
		directory: directory,
		auditor:   auditor,
	}
}

func (s *service) CreateBonus(
	ctx context.Context,
	companyID, actorID string,
	req CreateBonusRequest,
) (EventResponse, error) {
	event, err := s.newEvent(ctx, companyID, actorID, req.EmployeeID, TypeBonus, req.Amount, req.Description)
	if err != nil {
		return EventResponse{}, err
	}
	event.ApplicableMonth = &req.ApplicableMonth
	event.ApplicableYear = &req.ApplicableYear

	if err := s.repo.Create(ctx, event); err != nil {
		return EventResponse{}, err
	}

	return mapToResponse(*event), nil
}

func (s *service) CreateLoan(
	ctx context.Context,
	companyID, actorID string,
	req CreateLoanRequest,
) (EventResponse, error) {
	firstDue, err := time.Parse("2006-01-02", req.FirstDueDate)
	if err != nil {
		return EventResponse{}, adhocerrors.ErrInvalidDateFormat
	}

	event, err := s.newEvent(ctx, companyID, actorID, req.EmployeeID, TypeLoan, req.Principal, req.Description)
	if err != nil {
		return EventResponse{}, err
	}
	event.InterestAmount = req.InterestAmount
	event.InstallmentCount = req.InstallmentCount
	event.FirstDueDate = &firstDue
	event.Installments = buildSchedule(event.ID, req.Principal+req.InterestAmount, req.InstallmentCount, firstDue)

	if err := s.repo.Create(ctx, event); err != nil {
		return EventResponse{}, err
	}

	return mapToResponse(*event), nil
}

func (s *service) CreateReimbursement(
	ctx context.Context,
	companyID, actorID string,
	req CreateReimbursementRequest,
) (EventResponse, error) {
	event, err := s.newEvent(ctx, companyID, actorID, req.EmployeeID, TypeReimbursement, req.Amount, req.Description)
	if err != nil {
		return EventResponse{}, err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return EventResponse{}, err
	}

	return mapToResponse(*event), nil
}

func (s *service) Approve(
	ctx context.Context,
	companyID, actorID, id string,
) (EventResponse, error) {
	approverUUID, err := uuid.Parse(actorID)
	if err != nil {
		return EventResponse{}, adhocerrors.ErrInvalidEmployeeID
	}

	var after EventResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		event, err := qtx.FindByIDAndCompany(ctx, companyID, id)
		if err != nil {
			return err
		}

		if event.Status != StatusPending {
			return adhocerrors.ErrNotPending
		}

		before := mapToResponse(*event)

		now := time.Now().UTC()
		event.ApprovedBy = &approverUUID
		event.ApprovedAt = &now
		// Approved loans move straight to SCHEDULED: their installment
		// schedule is now live for upcoming pay periods.
		if event.Type == TypeLoan {
			event.Status = StatusScheduled
		} else {
			event.Status = StatusApproved
		}

		if err := qtx.Update(ctx, event); err != nil {
			return err
		}

		after = mapToResponse(*event)
		return s.auditor.Record(ctx, companyID, "adhoc_event", event.ID.String(), "APPROVED", before, after)
	})
	if err != nil {
		return EventResponse{}, err
	}

	return after, nil
}

func (s *service) Reject(
	ctx context.Context,
	companyID, actorID, id string,
	req RejectRequest,
) (EventResponse, error) {
	var after EventResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		event, err := qtx.FindByIDAndCompany(ctx, companyID, id)
		if err != nil {
			return err
		}

		if event.Status != StatusPending {
			return adhocerrors.ErrNotPending
		}

		before := mapToResponse(*event)

		event.Status = StatusRejected
		event.RejectReason = &req.Reason

		if err := qtx.Update(ctx, event); err != nil {
			return err
		}

		after = mapToResponse(*event)
		return s.auditor.Record(ctx, companyID, "adhoc_event", event.ID.String(), "REJECTED", before, after)
	})
	if err != nil {
		return EventResponse{}, err
	}

	return after, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (EventResponse, error) {
	event, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return EventResponse{}, err
	}
	return mapToResponse(*event), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilterRequest) ([]EventResponse, error) {
	events, err := s.repo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]EventResponse, len(events))
	for i, event := range events {
		resp[i] = mapToResponse(event)
	}
	return resp, nil
}

func (s *service) newEvent(
	ctx context.Context,
	companyID, actorID, employeeID, eventType string,
	amount int64,
	description string,
) (*AdHocEvent, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return nil, adhocerrors.ErrInvalidEmployeeID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, adhocerrors.ErrInvalidEmployeeID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, adhocerrors.ErrInvalidEmployeeID
	}

	belongs, err := s.directory.BelongsToCompany(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	if !belongs {
		return nil, adhocerrors.ErrEmployeeNotInCompany
	}

	return &AdHocEvent{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		EmployeeID:  employeeUUID,
		Type:        eventType,
		Amount:      amount,
		Status:      StatusPending,
		Description: description,
		CreatedBy:   actorUUID,
	}, nil
}

// buildSchedule splits total across count monthly installments starting at
// firstDue. money.SplitEven puts the remainder cents on installment #1 so
// the schedule sums to the total exactly.
func buildSchedule(eventID uuid.UUID, total int64, count int, firstDue time.Time) []LoanInstallment {
	amounts := money.SplitEven(total, count)

	installments := make([]LoanInstallment, count)
	for i := range installments {
		installments[i] = LoanInstallment{
			ID:        uuid.New(),
			EventID:   eventID,
			Sequence:  i + 1,
			DueAmount: amounts[i],
			DueDate:   firstDue.AddDate(0, i, 0),
			Status:    InstallmentPending,
		}
	}
	return installments
}

func mapToResponse(event AdHocEvent) EventResponse {
	resp := EventResponse{
		ID:              event.ID.String(),
		EmployeeID:      event.EmployeeID.String(),
		Type:            event.Type,
		Amount:          event.Amount,
		Status:          event.Status,
		ApplicableMonth: event.ApplicableMonth,
		ApplicableYear:  event.ApplicableYear,
		InterestAmount:  event.InterestAmount,
		Description:     event.Description,
		RejectReason:    event.RejectReason,
	}

	if len(event.Installments) > 0 {
		resp.Installments = make([]InstallmentResponse, len(event.Installments))
		for i, inst := range event.Installments {
			ir := InstallmentResponse{
				ID:        inst.ID.String(),
				Sequence:  inst.Sequence,
				DueAmount: inst.DueAmount,
				DueDate:   inst.DueDate.Format("2006-01-02"),
				Status:    inst.Status,
			}
			if inst.PaidAt != nil {
				v := inst.PaidAt.Format(time.RFC3339)
				ir.PaidAt = &v
			}
			resp.Installments[i] = ir
		}
	}

	return resp
}
