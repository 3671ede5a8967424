package constants

const (
	Owner   = "owner"
	Admin   = "admin"
	Manager = "manager"
	Member  = "member"
)

// ValidRoles is the set of membership roles.
var ValidRoles = []string{Member, Manager, Admin, Owner}

// AssignableRoles are the roles an invitation or role update may grant.
// Owner is set once at organisation creation.
var AssignableRoles = []string{Member, Manager, Admin}

// IsValidRole returns true if role is one of the membership roles.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

// IsAssignableRole returns true if role may be granted by invitation or update.
func IsAssignableRole(role string) bool {
	return contains(AssignableRoles, role)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
