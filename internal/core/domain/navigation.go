package domain

// NavItem is a navigation entry. An item with ModuleNone is visible to
// everyone; ManagerOnly items additionally require the manager tier.
type NavItem struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	Module      Module `json:"module,omitempty"`
	ManagerOnly bool   `json:"manager_only,omitempty"`
}

// DefaultNavigation is the top-level menu of the clinic application.
var DefaultNavigation = []NavItem{
	{Key: "dashboard", Title: "Dashboard", Path: "/"},
	{Key: "registry", Title: "Registry", Path: "/registry", Module: ModuleRegistry},
	{Key: "schedule", Title: "Schedule", Path: "/schedule", Module: ModuleSchedule},
	{Key: "doctors", Title: "Doctors", Path: "/doctors", Module: ModuleDoctors},
	{Key: "medical-records", Title: "Medical records", Path: "/medical-records", Module: ModuleMedicalRecords},
	{Key: "laboratory", Title: "Laboratory", Path: "/laboratory", Module: ModuleLaboratory},
	{Key: "services-inventory", Title: "Services & inventory", Path: "/services-inventory", Module: ModuleServicesInventory},
	{Key: "finance", Title: "Finance", Path: "/finance", Module: ModuleFinance},
	{Key: "reports", Title: "Reports", Path: "/reports", Module: ModuleReports},
	{Key: "analytics", Title: "Analytics", Path: "/analytics", Module: ModuleReports, ManagerOnly: true},
	{Key: "settings", Title: "Settings", Path: "/settings", Module: ModuleSettings},
	{Key: "users", Title: "Users", Path: "/users", Module: ModuleUsers, ManagerOnly: true},
	{Key: "tenants", Title: "Clinics", Path: "/admin/tenants", Module: ModuleTenantAdmin},
	{Key: "help", Title: "Help", Path: "/help"},
}
