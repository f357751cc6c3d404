package domain

// Credentials is the login payload. EmployeeID is only sent by employees.
type Credentials struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// Actor is the signed-in account as reported by the backend.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// DisplayName prefers the full name over the username.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}

// Recipient is a manager an employee can write to.
type Recipient struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	EmployeeName string `json:"employee_name"`
}
