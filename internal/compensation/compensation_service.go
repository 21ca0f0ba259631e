package compensation

import (
	"context"
	"errors"
	"time"

	"go-payroll/internal/audit"
	compensationerrors "go-payroll/internal/compensation/errors"
	"go-payroll/internal/employee"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service interface {
	CreateComponent(ctx context.Context, companyID string, req CreateComponentRequest) (ComponentResponse, error)
	ListComponents(ctx context.Context, companyID string) ([]ComponentResponse, error)

	Revise(ctx context.Context, companyID, actorID string, req ReviseCompensationRequest) (SnapshotResponse, error)
	GetCurrent(ctx context.Context, companyID, employeeID string, asOf time.Time) (SnapshotResponse, error)
	GetHistory(ctx context.Context, companyID, employeeID string) ([]SnapshotResponse, error)
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

func (s *service) CreateComponent(
	ctx context.Context,
	companyID string,
	req CreateComponentRequest,
) (ComponentResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return ComponentResponse{}, compensationerrors.ErrInvalidEmployeeID
	}

	component := &CompensationComponent{
		ID:           uuid.New(),
		CompanyID:    companyUUID,
		Code:         req.Code,
		Name:         req.Name,
		Kind:         req.Kind,
		CalcMode:     req.CalcMode,
		Taxable:      req.Taxable,
		PFApplicable: req.PFApplicable,
		SIApplicable: req.SIApplicable,
		Formula:      req.Formula,
	}

	if err := s.repo.CreateComponent(ctx, component); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ComponentResponse{}, compensationerrors.ErrComponentCodeTaken
		}
		return ComponentResponse{}, err
	}

	return mapComponentToResponse(*component), nil
}

func (s *service) ListComponents(ctx context.Context, companyID string) ([]ComponentResponse, error) {
	components, err := s.repo.ListComponents(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]ComponentResponse, len(components))
	for i, c := range components {
		resp[i] = mapComponentToResponse(c)
	}
	return resp, nil
}

// Revise closes the employee's open-ended snapshot at effective_from − 1 day
// and inserts the new structure as the current one, in a single transaction.
// Snapshots are never mutated after insert.
func (s *service) Revise(
	ctx context.Context,
	companyID, actorID string,
	req ReviseCompensationRequest,
) (SnapshotResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return SnapshotResponse{}, compensationerrors.ErrInvalidEmployeeID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return SnapshotResponse{}, compensationerrors.ErrInvalidEmployeeID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return SnapshotResponse{}, compensationerrors.ErrInvalidEmployeeID
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return SnapshotResponse{}, compensationerrors.ErrInvalidDateFormat
	}

	if req.AnnualCTC < 0 || req.MonthlyGross < 0 {
		return SnapshotResponse{}, compensationerrors.ErrInvalidMoneyValue
	}

	belongs, err := s.directory.BelongsToCompany(ctx, companyID, req.EmployeeID)
	if err != nil {
		return SnapshotResponse{}, err
	}
	if !belongs {
		return SnapshotResponse{}, compensationerrors.ErrEmployeeNotInCompany
	}

	var after SnapshotResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		allocations, err := s.buildAllocations(ctx, qtx, companyID, req.Components)
		if err != nil {
			return err
		}

		prior, err := qtx.FindOpenEnded(ctx, companyID, req.EmployeeID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var before *SnapshotResponse
		if prior != nil {
			// Retroactive revisions before the current structure took effect
			// are not permitted; they would rewrite already-computed history.
			if !effectiveFrom.After(prior.EffectiveFrom) {
				return compensationerrors.ErrOverlap
			}

			priorResp := mapSnapshotToResponse(*prior)
			before = &priorResp

			closeAt := effectiveFrom.AddDate(0, 0, -1)
			if err := qtx.CloseSnapshot(ctx, prior.ID.String(), closeAt); err != nil {
				return err
			}
		}

		snapshot := &CompensationSnapshot{
			ID:            uuid.New(),
			CompanyID:     companyUUID,
			EmployeeID:    employeeUUID,
			EffectiveFrom: effectiveFrom,
			AnnualCTC:     req.AnnualCTC,
			MonthlyGross:  req.MonthlyGross,
			CreatedBy:     actorUUID,
		}
		for i := range allocations {
			allocations[i].SnapshotID = snapshot.ID
		}
		snapshot.Allocations = allocations

		if err := qtx.CreateSnapshot(ctx, snapshot); err != nil {
			return err
		}

		after = mapSnapshotToResponse(*snapshot)
		return s.auditor.Record(ctx, companyID, "compensation_snapshot", snapshot.ID.String(), "REVISED", before, after)
	})
	if err != nil {
		return SnapshotResponse{}, err
	}

	return after, nil
}

func (s *service) GetCurrent(
	ctx context.Context,
	companyID, employeeID string,
	asOf time.Time,
) (SnapshotResponse, error) {
	snapshot, err := s.repo.FindCurrent(ctx, companyID, employeeID, asOf)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SnapshotResponse{}, compensationerrors.ErrNoCurrentSnapshot
		}
		return SnapshotResponse{}, err
	}

	return mapSnapshotToResponse(*snapshot), nil
}

func (s *service) GetHistory(
	ctx context.Context,
	companyID, employeeID string,
) ([]SnapshotResponse, error) {
	snapshots, err := s.repo.ListByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	resp := make([]SnapshotResponse, len(snapshots))
	for i, snap := range snapshots {
		resp[i] = mapSnapshotToResponse(snap)
	}
	return resp, nil
}

// buildAllocations validates the requested component entries against the
// catalog and copies each component's definition into the allocation.
func (s *service) buildAllocations(
	ctx context.Context,
	qtx Repository,
	companyID string,
	reqs []AllocationRequest,
) ([]ComponentAllocation, error) {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ComponentID
	}

	components, err := qtx.FindComponents(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]CompensationComponent, len(components))
	for _, c := range components {
		catalog[c.ID.String()] = c
	}

	allocations := make([]ComponentAllocation, 0, len(reqs))
	for i, r := range reqs {
		def, ok := catalog[r.ComponentID]
		if !ok {
			return nil, compensationerrors.ErrUnknownComponent
		}

		alloc := ComponentAllocation{
			ID:              uuid.New(),
			ComponentID:     def.ID,
			Position:        i,
			CalculationBase: BaseGross,
			ComponentCode:   def.Code,
			ComponentName:   def.Name,
			Kind:            def.Kind,
			CalcMode:        def.CalcMode,
			Taxable:         def.Taxable,
			PFApplicable:    def.PFApplicable,
			SIApplicable:    def.SIApplicable,
			Formula:         def.Formula,
		}
		if r.CalculationBase != "" {
			alloc.CalculationBase = r.CalculationBase
		}

		switch def.CalcMode {
		case CalcModeFixed:
			if r.Amount == nil || r.Percentage != nil {
				return nil, compensationerrors.ErrInvalidAllocation
			}
			if *r.Amount < 0 {
				return nil, compensationerrors.ErrInvalidMoneyValue
			}
			alloc.Amount = r.Amount
		case CalcModePercentage:
			if r.Percentage == nil || r.Amount != nil {
				return nil, compensationerrors.ErrInvalidAllocation
			}
			pct, err := decimal.NewFromString(*r.Percentage)
			if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
				return nil, compensationerrors.ErrInvalidPercentage
			}
			alloc.Percentage = decimal.NewNullDecimal(pct)
		case CalcModeFormula:
			if r.Amount != nil || r.Percentage != nil {
				return nil, compensationerrors.ErrInvalidAllocation
			}
		default:
			return nil, compensationerrors.ErrInvalidAllocation
		}

		allocations = append(allocations, alloc)
	}

	return allocations, nil
}

func mapComponentToResponse(c CompensationComponent) ComponentResponse {
	return ComponentResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		Kind:         c.Kind,
		CalcMode:     c.CalcMode,
		Taxable:      c.Taxable,
		PFApplicable: c.PFApplicable,
		SIApplicable: c.SIApplicable,
		Formula:      c.Formula,
	}
}

func mapSnapshotToResponse(snapshot CompensationSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		ID:            snapshot.ID.String(),
		EmployeeID:    snapshot.EmployeeID.String(),
		EffectiveFrom: snapshot.EffectiveFrom.Format("2006-01-02"),
		AnnualCTC:     snapshot.AnnualCTC,
		MonthlyGross:  snapshot.MonthlyGross,
		Components:    make([]AllocationResponse, len(snapshot.Allocations)),
	}

	if snapshot.EffectiveTo != nil {
		v := snapshot.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &v
	}

	for i, alloc := range snapshot.Allocations {
		ar := AllocationResponse{
			ComponentID:     alloc.ComponentID.String(),
			ComponentCode:   alloc.ComponentCode,
			ComponentName:   alloc.ComponentName,
			Kind:            alloc.Kind,
			CalcMode:        alloc.CalcMode,
			Amount:          alloc.Amount,
			CalculationBase: alloc.CalculationBase,
			Taxable:         alloc.Taxable,
		}
		if alloc.Percentage.Valid {
			v := alloc.Percentage.Decimal.String()
			ar.Percentage = &v
		}
		resp.Components[i] = ar
	}

	return resp
}
