package payrollerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrLineNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll line not found",
		http.StatusNotFound,
	)
	ErrPeriodExists = apperror.New(
		apperror.CodeConflict,
		"a payroll run already exists for this period",
		http.StatusConflict,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"period month must be 1-12 and year must be plausible",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"the payroll run is not in a status that permits this operation",
		http.StatusConflict,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConcurrentModification,
		"the payroll run was modified by another request, reload and retry",
		http.StatusConflict,
	)
	ErrNotDeletable = apperror.New(
		apperror.CodeInvalidState,
		"only draft runs can be deleted",
		http.StatusConflict,
	)
	ErrLinesStillPending = apperror.New(
		apperror.CodeInvalidState,
		"run still has unprocessed lines",
		http.StatusConflict,
	)
	ErrInstallmentConflict = apperror.New(
		apperror.CodeConflict,
		"a loan installment on this run was already consumed elsewhere",
		http.StatusConflict,
	)
	ErrEventConflict = apperror.New(
		apperror.CodeConflict,
		"an ad-hoc event on this run was already consumed elsewhere",
		http.StatusConflict,
	)
	ErrInvalidRunID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll run id",
		http.StatusBadRequest,
	)
	ErrInvalidIdentifier = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company or actor id",
		http.StatusBadRequest,
	)
)
