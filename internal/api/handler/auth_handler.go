package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/api/middleware"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// Navigator exposes what a role may open.
type Navigator interface {
	Modules(role domain.Role) []domain.Module
	Navigation(role domain.Role) []domain.NavItem
}

// AuthHandler serves the cookie session endpoints under /api/auth.
type AuthHandler struct {
	auth     ports.AuthService
	selector ports.SelectorService
	guard    Navigator
	cookies  CookieConfig
}

func NewAuthHandler(auth ports.AuthService, selector ports.SelectorService, guard Navigator, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, selector: selector, guard: guard, cookies: cookies}
}

// Login authenticates a user and sets the session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), ports.LoginInput{
		Username:     req.Username,
		Password:     req.Password,
		BranchID:     req.BranchID,
		HostTenant:   middleware.HostTenant(c),
		PlatformHost: middleware.PlatformHost(c),
	})
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	h.cookies.set(c, res.Tokens)
	return c.JSON(http.StatusOK, toSessionResponse(h.guard, res.User, res.Session, res.Tenant, res.Branch))
}

// Refresh rotates the session cookies using the refresh cookie.
//
// @Summary      Refresh session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || ck.Value == "" {
		return domain.ErrUnauthenticated
	}

	res, err := h.auth.Refresh(c.Request().Context(), ck.Value)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.cookies.clear(c)
		}
		return err
	}

	h.cookies.set(c, res.Tokens)
	return c.JSON(http.StatusOK, toSessionResponse(h.guard, res.User, res.Session, res.Tenant, res.Branch))
}

// Logout revokes the refresh token and clears the cookies.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil && ck.Value != "" {
		if err := h.auth.Logout(c.Request().Context(), ck.Value); err != nil {
			return err
		}
	}
	h.cookies.clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current identity, selection and permitted modules.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	tenant, branch, err := h.selector.Current(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.guard, middleware.CurrentUser(c), sess, tenant, branch))
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserBlocked):
		return "blocked"
	case errors.Is(err, domain.ErrTenantInactive):
		return "tenant_inactive"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
