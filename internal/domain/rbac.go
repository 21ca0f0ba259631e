package domain

// EnforceRequest is the narrow contract between HTTP middleware and whatever
// implements authorization. The engine only asks "may this employee of this
// company do action on resource"; role administration lives outside it.
type EnforceRequest struct {
	EmployeeID string
	CompanyID  string
	Resource   string
	Action     string
}
