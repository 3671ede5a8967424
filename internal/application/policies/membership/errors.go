package membership

import "axis-backend/internal/pkg/apperr"

var (
	ErrInvalidRole          = apperr.Validation("invalid_role", "Role must be one of member, manager or admin")
	ErrCannotRemoveOwner    = apperr.New(apperr.KindState, "cannot_remove_owner", "Cannot remove organisation owner")
	ErrCannotChangeOwner    = apperr.New(apperr.KindState, "cannot_change_owner_role", "The organisation owner's role cannot be changed")
	ErrMembershipNotFound   = apperr.NotFound("Employee")
	ErrDepartmentOutsideOrg = apperr.Validation("department_outside_organisation", "Department does not belong to this organisation")
)
