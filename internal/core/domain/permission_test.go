package domain

import (
	"errors"
	"testing"
)

func TestValidatePermissions_Default(t *testing.T) {
	if err := ValidatePermissions(DefaultPermissions); err != nil {
		t.Fatalf("default table should be valid: %v", err)
	}
}

func TestValidatePermissions_MissingRole(t *testing.T) {
	table := PermissionTable{}
	for r, set := range DefaultPermissions {
		if r != RoleManager {
			table[r] = set
		}
	}

	err := ValidatePermissions(table)
	if !errors.Is(err, ErrInvalidPermissionTable) {
		t.Fatalf("expected ErrInvalidPermissionTable, got %v", err)
	}
}

func TestValidatePermissions_UnknownModule(t *testing.T) {
	table := PermissionTable{}
	for r, set := range DefaultPermissions {
		table[r] = set
	}
	table[RoleDoctor] = NewPermissionSet(ModuleRegistry, Module("surgery"))

	if err := ValidatePermissions(table); !errors.Is(err, ErrInvalidPermissionTable) {
		t.Fatalf("expected ErrInvalidPermissionTable, got %v", err)
	}
}

func TestValidatePermissions_PlatformModuleReserved(t *testing.T) {
	table := PermissionTable{}
	for r, set := range DefaultPermissions {
		table[r] = set
	}
	table[RoleAdministrator] = NewPermissionSet(ModuleTenantAdmin)

	if err := ValidatePermissions(table); !errors.Is(err, ErrInvalidPermissionTable) {
		t.Fatalf("expected ErrInvalidPermissionTable, got %v", err)
	}
}

func TestHasPermission_TableMembership(t *testing.T) {
	for _, role := range []Role{RoleDoctor, RoleAdministrator, RoleManager, RoleWarehouseManager} {
		set := DefaultPermissions[role]
		for _, m := range AllModules {
			got := DefaultPermissions.HasPermission(role, m)
			if got != set.Has(m) {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", role, m, got, set.Has(m))
			}
		}
	}
}

func TestHasPermission_DirectorOverridesTable(t *testing.T) {
	table := PermissionTable{RoleDirector: NewPermissionSet()}
	for _, m := range TenantModules {
		if !table.HasPermission(RoleDirector, m) {
			t.Errorf("director denied %s", m)
		}
	}
}

func TestHasPermission_SuperAdmin(t *testing.T) {
	for _, m := range AllModules {
		if !DefaultPermissions.HasPermission(RoleSuperAdmin, m) {
			t.Errorf("super admin denied %s", m)
		}
	}
	for _, r := range []Role{RoleDoctor, RoleAdministrator, RoleManager, RoleWarehouseManager, RoleDirector} {
		if DefaultPermissions.HasPermission(r, ModuleTenantAdmin) {
			t.Errorf("%s must not reach the platform module", r)
		}
	}
}

func TestHasPermission_NoneModuleAlwaysVisible(t *testing.T) {
	for _, r := range append(append([]Role{}, AllRoles...), RoleUnknown, Role("intern")) {
		if !DefaultPermissions.HasPermission(r, ModuleNone) {
			t.Errorf("ModuleNone hidden from %q", r)
		}
	}
}

func TestHasPermission_UnknownRoleDenied(t *testing.T) {
	for _, m := range AllModules {
		if DefaultPermissions.HasPermission(Role("intern"), m) {
			t.Errorf("unknown role granted %s", m)
		}
		if DefaultPermissions.HasPermission(RoleUnknown, m) {
			t.Errorf("empty role granted %s", m)
		}
	}
}

func TestHasPermission_ManagerScenario(t *testing.T) {
	table := PermissionTable{
		RoleManager: NewPermissionSet(ModuleRegistry, ModuleSchedule, ModuleServicesInventory, ModuleFinance),
	}
	if table.HasPermission(RoleManager, ModuleReports) {
		t.Fatalf("manager must be denied reports")
	}
	if !table.HasPermission(RoleManager, ModuleSchedule) {
		t.Fatalf("manager must be allowed schedule")
	}
}

func TestModules_StableOrder(t *testing.T) {
	got := DefaultPermissions.Modules(RoleWarehouseManager)
	if len(got) != 1 || got[0] != ModuleServicesInventory {
		t.Fatalf("unexpected modules: %v", got)
	}
	if n := len(DefaultPermissions.Modules(RoleSuperAdmin)); n != len(AllModules) {
		t.Fatalf("super admin should see %d modules, got %d", len(AllModules), n)
	}
}

func TestParseModule(t *testing.T) {
	if m, ok := ParseModule("finance"); !ok || m != ModuleFinance {
		t.Fatalf("finance not parsed: %v %v", m, ok)
	}
	if m, ok := ParseModule(""); !ok || m != ModuleNone {
		t.Fatalf("empty module should parse as ModuleNone")
	}
	if _, ok := ParseModule("surgery"); ok {
		t.Fatalf("unknown module parsed")
	}
}
