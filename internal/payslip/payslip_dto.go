package payslip

type SlipResponse struct {
	ID            string `json:"id"`
	PayrollLineID string `json:"payroll_line_id"`
	EmployeeID    string `json:"employee_id"`
	SlipNumber    string `json:"slip_number"`
	FilePath      string `json:"file_path"`
	GeneratedAt   string `json:"generated_at"`
}
