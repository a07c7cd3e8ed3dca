package types

type Employee struct {
	ID             string  `json:"id"`
	TenantID       string  `json:"tenant_id"`
	EmployeeNumber string  `json:"employee_number"`
	FullName       string  `json:"full_name"`
	FullNameAr     string  `json:"full_name_ar,omitempty"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone,omitempty"`
	NationalID     string  `json:"national_id,omitempty"`
	Nationality    string  `json:"nationality,omitempty"`
	IsSaudi        bool    `json:"is_saudi"`
	DepartmentID   string  `json:"department_id,omitempty"`
	ManagerID      string  `json:"manager_id,omitempty"`
	Position       string  `json:"position,omitempty"`
	Status         string  `json:"status"`
	HireDate       string  `json:"hire_date,omitempty"`
	Salary         float64 `json:"salary"`
	IBAN           string  `json:"iban,omitempty"`
}

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusOnLeave, StatusTerminated:
		return true
	default:
		return false
	}
}

// EmployeeInput is a create or partial update payload; nil fields are left
// unchanged on update.
type EmployeeInput struct {
	EmployeeNumber *string  `json:"employee_number"`
	FullName       *string  `json:"full_name"`
	FullNameAr     *string  `json:"full_name_ar"`
	Email          *string  `json:"email"`
	Phone          *string  `json:"phone"`
	NationalID     *string  `json:"national_id"`
	Nationality    *string  `json:"nationality"`
	IsSaudi        *bool    `json:"is_saudi"`
	DepartmentID   *string  `json:"department_id"`
	ManagerID      *string  `json:"manager_id"`
	Position       *string  `json:"position"`
	Status         *string  `json:"status"`
	HireDate       *string  `json:"hire_date"`
	Salary         *float64 `json:"salary"`
	IBAN           *string  `json:"iban"`
}

// Apply copies the set fields of in onto e.
func (in EmployeeInput) Apply(e *Employee) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&e.EmployeeNumber, in.EmployeeNumber)
	setString(&e.FullName, in.FullName)
	setString(&e.FullNameAr, in.FullNameAr)
	setString(&e.Email, in.Email)
	setString(&e.Phone, in.Phone)
	setString(&e.NationalID, in.NationalID)
	setString(&e.Nationality, in.Nationality)
	setString(&e.DepartmentID, in.DepartmentID)
	setString(&e.ManagerID, in.ManagerID)
	setString(&e.Position, in.Position)
	setString(&e.Status, in.Status)
	setString(&e.HireDate, in.HireDate)
	setString(&e.IBAN, in.IBAN)
	if in.IsSaudi != nil {
		e.IsSaudi = *in.IsSaudi
	}
	if in.Salary != nil {
		e.Salary = *in.Salary
	}
}
