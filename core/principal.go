package core

// Roles
const (
	RoleOrgPresident     = "org_president"
	RoleOrgAdviser       = "org_adviser"
	RoleCouncilPresident = "council_president"
	RoleCouncilAdviser   = "council_adviser"
	RoleOsas             = "osas"
	RoleMisCoordinator   = "mis_coordinator"
)

var AllRoles = []string{
	RoleOrgPresident,
	RoleOrgAdviser,
	RoleCouncilPresident,
	RoleCouncilAdviser,
	RoleOsas,
	RoleMisCoordinator,
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller, resolved once per request and passed
// explicitly into every service call. Ownership checks always join back to
// OrganizationID/CouncilID; ids submitted by the client are never trusted.
type Principal struct {
	UserID         string
	Role           string
	OrganizationID string // set for org_president / org_adviser
	CouncilID      string // set for council_president / council_adviser
	CollegeID      string // set for council roles and mis_coordinator
}

func (p Principal) IsOrgScoped() bool {
	return p.Role == RoleOrgPresident || p.Role == RoleOrgAdviser
}

func (p Principal) IsCouncilScoped() bool {
	return p.Role == RoleCouncilPresident || p.Role == RoleCouncilAdviser
}

func (p Principal) IsAdviser() bool {
	return p.Role == RoleOrgAdviser || p.Role == RoleCouncilAdviser
}

func (p Principal) IsPresident() bool {
	return p.Role == RoleOrgPresident || p.Role == RoleCouncilPresident
}

func (p Principal) IsOsas() bool { return p.Role == RoleOsas }

// HasAnyRole reports whether the principal's role is in the allow-list.
// An empty allow-list permits any authenticated principal.
func (p Principal) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
