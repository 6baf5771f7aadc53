// Package access centralizes role-based capability checks.
package access

import (
	"fmt"

	"tracker/internal/models"
)

// Operation names a role-gated action.
type Operation string

const (
	CreateProject Operation = "create_project"
	AddMember     Operation = "add_member"
	AddTask       Operation = "add_task"
	CompleteTask  Operation = "complete_task"
	CancelTask    Operation = "cancel_task"
	Export        Operation = "export"
)

var everyone = map[models.Role]bool{
	models.RoleAdministrator: true,
	models.RoleManager:       true,
	models.RoleContributor:   true,
}

var policy = map[Operation]map[models.Role]bool{
	CreateProject: everyone,
	AddMember: {
		models.RoleAdministrator: true,
		models.RoleManager:       true,
	},
	AddTask:      everyone,
	CompleteTask: everyone,
	CancelTask:   everyone,
	Export:       everyone,
}

// Allowed reports whether the role may perform the operation. Unknown
// operations and roles are denied.
func Allowed(role models.Role, op Operation) bool {
	return policy[op][role]
}

// Check returns models.ErrForbidden when the role may not perform op.
func Check(role models.Role, op Operation) error {
	if !Allowed(role, op) {
		return fmt.Errorf("%s as %s: %w", op, role, models.ErrForbidden)
	}
	return nil
}
