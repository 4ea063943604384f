package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// SessionHandler switches the tenant and branch of the current session.
type SessionHandler struct {
	sessions ports.SessionService
	cookies  CookieConfig
}

func NewSessionHandler(sessions ports.SessionService, cookies CookieConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookies: cookies}
}

// SwitchBranch selects another branch of the current tenant.
//
// @Summary      Switch branch
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      switchBranchRequest  true  "Target branch"
// @Success      200   {object}  switchResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/auth/switch-branch [post]
func (h *SessionHandler) SwitchBranch(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req switchBranchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.SwitchBranch(c.Request().Context(), sess, req.BranchID)
	return h.respond(c, "branch", res, err)
}

// SwitchTenant moves a super admin into another clinic.
//
// @Summary      Switch tenant
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      switchTenantRequest  true  "Target tenant"
// @Success      200   {object}  switchResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/auth/switch-tenant [post]
func (h *SessionHandler) SwitchTenant(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req switchTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.SwitchTenant(c.Request().Context(), sess, req.TenantID)
	return h.respond(c, "tenant", res, err)
}

// respond sets new cookies only when the selection actually changed.
func (h *SessionHandler) respond(c echo.Context, kind string, res *ports.SwitchResult, err error) error {
	if err != nil {
		metrics.SessionSwitchesTotal.WithLabelValues(kind, switchFailure(err)).Inc()
		return err
	}
	if !res.Changed {
		metrics.SessionSwitchesTotal.WithLabelValues(kind, "noop").Inc()
		return c.JSON(http.StatusOK, toSwitchResponse(res))
	}

	metrics.SessionSwitchesTotal.WithLabelValues(kind, "changed").Inc()
	h.cookies.set(c, res.Tokens)
	return c.JSON(http.StatusOK, toSwitchResponse(res))
}

func switchFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrBranchNotInTenant):
		return "not_in_tenant"
	case errors.Is(err, domain.ErrBranchInactive), errors.Is(err, domain.ErrTenantInactive):
		return "inactive"
	case errors.Is(err, domain.ErrBranchNotFound), errors.Is(err, domain.ErrTenantNotFound):
		return "not_found"
	default:
		return "error"
	}
}
