package paysliperrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrSlipNotFound = apperror.New(
		apperror.CodeNotFound,
		"no payslip has been generated for this payroll line",
		http.StatusNotFound,
	)
	ErrLineNotPayable = apperror.New(
		apperror.CodeInvalidState,
		"payslips can only be generated for approved or paid runs",
		http.StatusConflict,
	)
	ErrLineNotProcessed = apperror.New(
		apperror.CodeInvalidState,
		"the payroll line has no computed result to put on a slip",
		http.StatusConflict,
	)
)
