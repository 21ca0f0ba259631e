package payslip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-payroll/internal/audit"
	"go-payroll/internal/payrollrun"
	payrollerrors "go-payroll/internal/payrollrun/errors"
	paysliperrors "go-payroll/internal/payslip/errors"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/counter"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	// Generate renders and stores the slip for one payroll line. Calling it
	// again returns the existing slip without re-rendering.
	Generate(ctx context.Context, companyID, lineID string) (SlipResponse, error)
	GetByLine(ctx context.Context, companyID, lineID string) (SlipResponse, []byte, error)
}

type service struct {
	db       *gorm.DB
	runs     payrollrun.Repository
	counters counter.Repository
	storage  Storage
	auditor  audit.Writer
}

func NewService(
	db *gorm.DB,
	runs payrollrun.Repository,
	counters counter.Repository,
	storage Storage,
	auditor audit.Writer,
) Service {
	return &service{
		db:       db,
		runs:     runs,
		counters: counters,
		storage:  storage,
		auditor:  auditor,
	}
}

func (s *service) Generate(ctx context.Context, companyID, lineID string) (SlipResponse, error) {
	logger := contextutil.GetLogger(ctx, nil).Named("payslip").With(zap.String("line_id", lineID))

	line, err := s.runs.FindLineByIDAndCompany(ctx, companyID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SlipResponse{}, payrollerrors.ErrLineNotFound
		}
		return SlipResponse{}, err
	}

	var existing Payslip
	err = s.db.WithContext(ctx).
		First(&existing, "payroll_line_id = ?", line.ID).Error
	if err == nil {
		return mapToResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SlipResponse{}, err
	}

	run, err := s.runs.FindRunByIDAndCompany(ctx, companyID, line.RunID.String())
	if err != nil {
		return SlipResponse{}, err
	}
	if run.Status != payrollrun.RunStatusApproved && run.Status != payrollrun.RunStatusPaid {
		return SlipResponse{}, paysliperrors.ErrLineNotPayable
	}
	if line.Status != payrollrun.LineStatusProcessed && line.Status != payrollrun.LineStatusPaid {
		return SlipResponse{}, paysliperrors.ErrLineNotProcessed
	}

	seq, err := s.counters.GetNextValue(ctx, companyID, "PAYSLIP")
	if err != nil {
		return SlipResponse{}, err
	}
	slipNumber := fmt.Sprintf("PS-%04d%02d-%06d", run.PeriodYear, run.PeriodMonth, seq)

	document, err := renderPayslipPDF(slipNumber, run, line)
	if err != nil {
		return SlipResponse{}, err
	}

	relativePath := fmt.Sprintf("%s/%04d-%02d/%s.pdf", companyID, run.PeriodYear, run.PeriodMonth, slipNumber)
	storedPath, err := s.storage.Save(ctx, relativePath, document)
	if err != nil {
		return SlipResponse{}, err
	}

	slip := Payslip{
		CompanyID:     run.CompanyID,
		PayrollLineID: line.ID,
		EmployeeID:    line.EmployeeID,
		SlipNumber:    slipNumber,
		FilePath:      storedPath,
		GeneratedAt:   time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&slip).Error; err != nil {
		// A concurrent emission won the unique index on payroll_line_id;
		// return its slip instead of failing.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner Payslip
			if findErr := s.db.WithContext(ctx).
				First(&winner, "payroll_line_id = ?", line.ID).Error; findErr == nil {
				return mapToResponse(winner), nil
			}
		}
		return SlipResponse{}, err
	}

	logger.Info("payslip generated", zap.String("slip_number", slipNumber))

	if err := s.auditor.Record(ctx, companyID, "payslip", slip.ID.String(), "GENERATED", nil, mapToResponse(slip)); err != nil {
		return SlipResponse{}, err
	}

	return mapToResponse(slip), nil
}

func (s *service) GetByLine(ctx context.Context, companyID, lineID string) (SlipResponse, []byte, error) {
	var slip Payslip
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&slip, "payroll_line_id = ?", lineID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SlipResponse{}, nil, paysliperrors.ErrSlipNotFound
		}
		return SlipResponse{}, nil, err
	}

	document, err := s.storage.Load(ctx, slip.FilePath)
	if err != nil {
		return SlipResponse{}, nil, err
	}

	return mapToResponse(slip), document, nil
}

func mapToResponse(slip Payslip) SlipResponse {
	return SlipResponse{
		ID:            slip.ID.String(),
		PayrollLineID: slip.PayrollLineID.String(),
		EmployeeID:    slip.EmployeeID.String(),
		SlipNumber:    slip.SlipNumber,
		FilePath:      slip.FilePath,
		GeneratedAt:   slip.GeneratedAt.Format(time.RFC3339),
	}
}
