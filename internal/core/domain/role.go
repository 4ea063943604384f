package domain

import "strings"

// Role is the closed set of user categories. The string value is the
// canonical representation stored in the database and carried in tokens.
type Role string

const (
	RoleUnknown          Role = ""
	RoleDoctor           Role = "doctor"
	RoleAdministrator    Role = "administrator"
	RoleManager          Role = "manager"
	RoleWarehouseManager Role = "warehouse_manager"
	RoleDirector         Role = "director"
	RoleSuperAdmin       Role = "super_admin"
)

// AllRoles lists every known role in display order.
var AllRoles = []Role{
	RoleDoctor,
	RoleAdministrator,
	RoleManager,
	RoleWarehouseManager,
	RoleDirector,
	RoleSuperAdmin,
}

// legacyRoles maps role literals written by the previous system onto the
// canonical values.
var legacyRoles = map[string]Role{
	"врач":            RoleDoctor,
	"администратор":   RoleAdministrator,
	"admin":           RoleAdministrator,
	"менеджер":        RoleManager,
	"менеджер_склада": RoleWarehouseManager,
	"руководитель":    RoleDirector,
	"superadmin":      RoleSuperAdmin,
}

// ParseRole converts a stored or legacy role literal into a Role.
// Unrecognised input yields RoleUnknown.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if string(r) == s {
			return r
		}
	}
	if r, ok := legacyRoles[s]; ok {
		return r
	}
	return RoleUnknown
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of AllRoles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether r operates across tenants.
func (r Role) IsSuperAdmin() bool { return r == RoleSuperAdmin }

// IsManagerTier is the single definition of the manager hierarchy used for
// manager-only navigation entries.
func (r Role) IsManagerTier() bool {
	switch r {
	case RoleDirector, RoleAdministrator, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// SeesAllBranches reports whether r may use every active branch of the
// current tenant rather than only its own memberships.
func (r Role) SeesAllBranches() bool {
	return r == RoleDirector || r == RoleSuperAdmin
}
