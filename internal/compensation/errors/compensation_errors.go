package compensationerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrNoCurrentSnapshot = apperror.New(
		apperror.CodeNotFound,
		"no compensation structure for this employee as of the requested date",
		http.StatusNotFound,
	)
	ErrOverlap = apperror.New(
		apperror.CodeConflict,
		"effective_from must be after the current structure's effective_from",
		http.StatusConflict,
	)
	ErrUnknownComponent = apperror.New(
		apperror.CodeInvalidInput,
		"component does not exist in this company's catalog",
		http.StatusBadRequest,
	)
	ErrComponentCodeTaken = apperror.New(
		apperror.CodeConflict,
		"a component with this code already exists",
		http.StatusConflict,
	)
	ErrInvalidAllocation = apperror.New(
		apperror.CodeInvalidInput,
		"allocation must set amount for FIXED components and percentage for PERCENTAGE components",
		http.StatusBadRequest,
	)
	ErrInvalidPercentage = apperror.New(
		apperror.CodeInvalidInput,
		"percentage must be a decimal between 0 and 100",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"employee does not belong to this company",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidMoneyValue = apperror.New(
		apperror.CodeInvalidInput,
		"monetary values cannot be negative",
		http.StatusBadRequest,
	)
)
