package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Module is a named functional area gated by role permission.
type Module string

const (
	// ModuleNone marks items that require no permission at all.
	ModuleNone Module = ""

	ModuleRegistry          Module = "registry"
	ModuleSchedule          Module = "schedule"
	ModuleDoctors           Module = "doctors"
	ModuleMedicalRecords    Module = "medical_records"
	ModuleLaboratory        Module = "laboratory"
	ModuleServicesInventory Module = "services_inventory"
	ModuleFinance           Module = "finance"
	ModuleReports           Module = "reports"
	ModuleSettings          Module = "settings"
	ModuleUsers             Module = "users"

	// ModuleTenantAdmin is the platform module reserved for super-admins.
	ModuleTenantAdmin Module = "tenant_admin"
)

// TenantModules are the modules that exist inside a clinic.
var TenantModules = []Module{
	ModuleRegistry,
	ModuleSchedule,
	ModuleDoctors,
	ModuleMedicalRecords,
	ModuleLaboratory,
	ModuleServicesInventory,
	ModuleFinance,
	ModuleReports,
	ModuleSettings,
	ModuleUsers,
}

// AllModules is TenantModules plus the platform module.
var AllModules = append(append([]Module{}, TenantModules...), ModuleTenantAdmin)

// Valid reports whether m is a known module. ModuleNone is not a module.
func (m Module) Valid() bool {
	for _, known := range AllModules {
		if m == known {
			return true
		}
	}
	return false
}

// ParseModule returns the module for s, or false when s is unknown.
func ParseModule(s string) (Module, bool) {
	m := Module(s)
	if m == ModuleNone || m.Valid() {
		return m, true
	}
	return ModuleNone, false
}

// PermissionSet is an unordered set of modules.
type PermissionSet map[Module]struct{}

// NewPermissionSet builds a set from the given modules.
func NewPermissionSet(modules ...Module) PermissionSet {
	s := make(PermissionSet, len(modules))
	for _, m := range modules {
		s[m] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(m Module) bool {
	_, ok := s[m]
	return ok
}

// Sorted returns the members in a stable order.
func (s PermissionSet) Sorted() []Module {
	out := make([]Module, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PermissionTable maps every role to its configured module set.
type PermissionTable map[Role]PermissionSet

// DefaultPermissions is the clinic permission table. The director row is
// informational: directors are granted every tenant module by HasPermission
// regardless of its content. The super-admin row is empty because that role
// bypasses the table.
var DefaultPermissions = PermissionTable{
	RoleDoctor: NewPermissionSet(
		ModuleRegistry, ModuleSchedule, ModuleDoctors, ModuleMedicalRecords, ModuleLaboratory,
	),
	RoleAdministrator: NewPermissionSet(
		ModuleRegistry, ModuleSchedule, ModuleDoctors, ModuleMedicalRecords, ModuleLaboratory,
		ModuleFinance, ModuleReports, ModuleSettings, ModuleUsers,
	),
	RoleManager: NewPermissionSet(
		ModuleRegistry, ModuleSchedule, ModuleServicesInventory, ModuleFinance,
	),
	RoleWarehouseManager: NewPermissionSet(
		ModuleServicesInventory,
	),
	RoleDirector:   NewPermissionSet(TenantModules...),
	RoleSuperAdmin: NewPermissionSet(),
}

var ErrInvalidPermissionTable = errors.New("invalid permission table")

// ValidatePermissions checks the table for completeness: every known role
// has a row, every listed module is known and only super-admins could ever
// be granted the platform module.
func ValidatePermissions(t PermissionTable) error {
	var errs []error
	for _, r := range AllRoles {
		if _, ok := t[r]; !ok {
			errs = append(errs, fmt.Errorf("role %q has no permission row", r))
		}
	}
	for r, set := range t {
		if !r.Valid() {
			errs = append(errs, fmt.Errorf("unknown role %q", r))
			continue
		}
		for _, m := range set.Sorted() {
			if !m.Valid() {
				errs = append(errs, fmt.Errorf("role %q: unknown module %q", r, m))
			}
			if m == ModuleTenantAdmin && r != RoleSuperAdmin {
				errs = append(errs, fmt.Errorf("role %q: module %q is reserved for super-admins", r, m))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPermissionTable, errors.Join(errs...))
	}
	return nil
}

// HasPermission is the access predicate shared by every route and menu.
// Unknown roles are denied; ModuleNone is always allowed.
func (t PermissionTable) HasPermission(role Role, module Module) bool {
	if module == ModuleNone {
		return true
	}
	if role == RoleSuperAdmin {
		return true
	}
	if module == ModuleTenantAdmin {
		return false
	}
	if role == RoleDirector {
		return true
	}
	set, ok := t[role]
	if !ok {
		return false
	}
	return set.Has(module)
}

// Modules lists the modules role may open, in a stable order.
func (t PermissionTable) Modules(role Role) []Module {
	out := make([]Module, 0, len(AllModules))
	for _, m := range AllModules {
		if t.HasPermission(role, m) {
			out = append(out, m)
		}
	}
	return out
}
