package compensation

type CreateComponentRequest struct {
	Code         string  `json:"code" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Kind         string  `json:"kind" binding:"required,oneof=EARNING DEDUCTION REIMBURSEMENT"`
	CalcMode     string  `json:"calc_mode" binding:"required,oneof=FIXED PERCENTAGE FORMULA"`
	Taxable      bool    `json:"taxable"`
	PFApplicable bool    `json:"pf_applicable"`
	SIApplicable bool    `json:"si_applicable"`
	Formula      *string `json:"formula"`
}

type ComponentResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	CalcMode     string  `json:"calc_mode"`
	Taxable      bool    `json:"taxable"`
	PFApplicable bool    `json:"pf_applicable"`
	SIApplicable bool    `json:"si_applicable"`
	Formula      *string `json:"formula,omitempty"`
}

type AllocationRequest struct {
	ComponentID     string  `json:"component_id" binding:"required,uuid"`
	Amount          *int64  `json:"amount"`
	Percentage      *string `json:"percentage"`
	CalculationBase string  `json:"calculation_base" binding:"omitempty,oneof=BASIC GROSS CTC"`
}

type ReviseCompensationRequest struct {
	EmployeeID    string              `json:"employee_id" binding:"required,uuid"`
	EffectiveFrom string              `json:"effective_from" binding:"required"`
	AnnualCTC     int64               `json:"annual_ctc" binding:"required"`
	MonthlyGross  int64               `json:"monthly_gross" binding:"required"`
	Components    []AllocationRequest `json:"components" binding:"required,min=1,dive"`
}

type AllocationResponse struct {
	ComponentID     string  `json:"component_id"`
	ComponentCode   string  `json:"component_code"`
	ComponentName   string  `json:"component_name"`
	Kind            string  `json:"kind"`
	CalcMode        string  `json:"calc_mode"`
	Amount          *int64  `json:"amount,omitempty"`
	Percentage      *string `json:"percentage,omitempty"`
	CalculationBase string  `json:"calculation_base"`
	Taxable         bool    `json:"taxable"`
}

type SnapshotResponse struct {
	ID            string               `json:"id"`
	EmployeeID    string               `json:"employee_id"`
	EffectiveFrom string               `json:"effective_from"`
	EffectiveTo   *string              `json:"effective_to,omitempty"`
	AnnualCTC     int64                `json:"annual_ctc"`
	MonthlyGross  int64                `json:"monthly_gross"`
	Components    []AllocationResponse `json:"components"`
}
