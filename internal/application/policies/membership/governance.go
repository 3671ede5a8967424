package membership

import (
	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/constants"
)

// ValidateRoleAssignment checks that newRole may be given to target. The owner
// role is set once at organisation creation and never assigned or revoked here.
func ValidateRoleAssignment(target *domain.Employee, newRole string) error {
	if !constants.IsAssignableRole(newRole) {
		return ErrInvalidRole
	}
	if target != nil && target.Role == constants.Owner {
		return ErrCannotChangeOwner
	}
	return nil
}

// ValidateRemoval checks that target may be deactivated.
func ValidateRemoval(target *domain.Employee) error {
	if target.Role == constants.Owner {
		return ErrCannotRemoveOwner
	}
	return nil
}
