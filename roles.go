package talent

// Role is the closed set of account roles
type Role string

const (
	// RoleTalent is a job seeker
	RoleTalent Role = "talent"
	// RoleRecruiter searches and shortlists talent
	RoleRecruiter Role = "recruiter"
	// RoleAdmin satisfies every role requirement
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleTalent, RoleRecruiter, RoleAdmin:
		return true
	default:
		return false
	}
}

// Satisfies reports whether an account with role r may enter a view that
// requires the given role. Admin is a super-role.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleTalent, RoleRecruiter:
		return r == required
	default:
		return false
	}
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleTalent,
		RoleRecruiter,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// LandingPath is where an account lands after signing in.
func LandingPath(role Role) string {
	switch role {
	case RoleTalent:
		return "/talent/profile"
	case RoleRecruiter, RoleAdmin:
		return "/recruiter/dashboard"
	default:
		return "/"
	}
}
