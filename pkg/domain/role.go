package domain

import "fmt"

// Role is the kind of back-office account a session belongs to.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// RoleInfo describes how a role talks to the backend.
type RoleInfo struct {
	Role  Role
	Label string
	// NeedsEmployeeID is set for roles whose login form asks for the employee ID field.
	NeedsEmployeeID bool
	// ReceiverType is the receiver_type used when messages are addressed to this role.
	ReceiverType string
}

// Roles lists every role the backend accepts.
var Roles = map[Role]RoleInfo{
	RoleEmployee: {Role: RoleEmployee, Label: "Employee", NeedsEmployeeID: true, ReceiverType: "employee"},
	RoleManager:  {Role: RoleManager, Label: "Manager", ReceiverType: "manager"},
	RoleAdmin:    {Role: RoleAdmin, Label: "Admin", ReceiverType: "admin"},
}

// RoleOrder is the display order for role pickers.
var RoleOrder = []Role{RoleEmployee, RoleManager, RoleAdmin}

// ValidRole returns true if the given role is known.
func ValidRole(r Role) bool {
	_, ok := Roles[r]
	return ok
}

// ParseRole validates a role name typed by the user.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !ValidRole(r) {
		return "", fmt.Errorf("unknown role %q (want employee, manager or admin)", s)
	}
	return r, nil
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }
