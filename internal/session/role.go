package session

// Role is the account role issued by the API at login. The set is closed:
// code that switches on Role is expected to handle every constant below.
type Role string

const (
	RoleUnset      Role = ""
	RoleUser       Role = "User"
	RoleAdmin      Role = "Admin"
	RoleSuperadmin Role = "Superadmin"
)

// Roles lists every Role, including RoleUnset.
func Roles() []Role {
	return []Role{RoleUnset, RoleUser, RoleAdmin, RoleSuperadmin}
}

// ParseRole maps the API's role string to a Role. Unknown values become
// RoleUnset.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return Role(s)
	default:
		return RoleUnset
	}
}

func (r Role) String() string {
	return string(r)
}

// IsStaff reports whether the role manages municipal data (alerts, contacts,
// evacuation centers, news approval).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}
