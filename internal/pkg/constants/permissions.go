package constants

const (
	ViewOrganisation     = "view_organisation"
	UpdateOrganisation   = "update_organisation"
	ManageSubscription   = "manage_subscription"
	DeleteOrganisation   = "delete_organisation"
	CompleteOnboarding   = "complete_onboarding"
	ManageMembers        = "manage_members"
	InviteMembers        = "invite_members"
	CreateDepartment     = "create_department"
	ManageDepartments    = "manage_departments"
	ManageDepartmentLead = "manage_department_leads"
)

// PermissionRoles maps each permission to the membership roles allowed to perform it.
// CreateDepartment is additionally granted to any membership flagged as a manager.
var PermissionRoles = map[string][]string{
	ViewOrganisation:     {Member, Manager, Admin, Owner},
	UpdateOrganisation:   {Admin, Owner},
	ManageSubscription:   {Owner},
	DeleteOrganisation:   {Owner},
	CompleteOnboarding:   {Owner},
	ManageMembers:        {Admin, Owner},
	InviteMembers:        {Admin, Owner},
	CreateDepartment:     {Admin, Owner},
	ManageDepartments:    {Admin, Owner},
	ManageDepartmentLead: {Admin, Owner},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	return contains(roles, role)
}
