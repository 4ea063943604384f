package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/api/handler"
	"github.com/ssavin/vetsystem-sub004/internal/api/middleware"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// Guard is the access guard as the HTTP layer uses it.
type Guard interface {
	middleware.ModuleGuard
	handler.Navigator
}

// Deps are the services the API routes are built from. Webhooks may be nil,
// in which case the telephony endpoint is not mounted.
type Deps struct {
	Auth     ports.AuthService
	Sessions ports.SessionService
	Selector ports.SelectorService
	Guard    Guard
	Tenants  middleware.TenantLookup
	Branches handler.BranchLister
	Webhooks handler.WebhookParser
	Calls    handler.CallQueue
	Realtime handler.RealtimeServer

	Hosts   middleware.TenantHosts
	Cookies handler.CookieConfig
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("vetsystem"))

	auth := middleware.Auth(d.Auth)
	tenant := middleware.ResolveTenant(d.Tenants, d.Hosts)

	authHandler := handler.NewAuthHandler(d.Auth, d.Selector, d.Guard, d.Cookies)
	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Cookies)
	selectorHandler := handler.NewSelectorHandler(d.Selector, d.Branches)

	api := e.Group("/api", tenant)

	// --- Auth routes ---
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me, auth)
	api.POST("/auth/switch-branch", sessionHandler.SwitchBranch, auth)
	api.POST("/auth/switch-tenant", sessionHandler.SwitchTenant, auth, middleware.RequireSuperAdmin())

	// --- Selector routes ---
	api.GET("/user/available-branches", selectorHandler.AvailableBranches, auth)
	api.GET("/user/branch-selector", selectorHandler.BranchSelector, auth)
	api.GET("/tenants", selectorHandler.Tenants, auth, middleware.RequireModule(d.Guard, domain.ModuleTenantAdmin))
	api.GET("/tenants/selector", selectorHandler.TenantSelector, auth, middleware.RequireModule(d.Guard, domain.ModuleTenantAdmin))
	api.GET("/branches", selectorHandler.Branches, auth, middleware.RequireModule(d.Guard, domain.ModuleSettings))

	// --- Telephony webhook (authenticated by signature, any host) ---
	if d.Webhooks != nil {
		telephonyHandler := handler.NewTelephonyHandler(d.Webhooks, d.Calls, d.Log)
		e.POST("/api/integrations/telephony/events", telephonyHandler.Event)
	}

	// --- Realtime ---
	realtimeHandler := handler.NewRealtimeHandler(d.Realtime)
	e.GET("/ws", realtimeHandler.Connect, auth)

	return e
}
