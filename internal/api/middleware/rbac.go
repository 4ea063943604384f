package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// ModuleGuard decides module access for a session.
type ModuleGuard interface {
	Allow(ctx context.Context, sess domain.SessionContext, module domain.Module) bool
}

// RequireModule lets the request through only when the session's role may
// open module. It must run after Auth.
func RequireModule(guard ModuleGuard, module domain.Module) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := Session(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			allowed := guard.Allow(c.Request().Context(), sess, module)
			metrics.RecordAccess(string(module), allowed)
			if !allowed {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireSuperAdmin restricts a route to platform administrators.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := Session(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if !sess.Role.IsSuperAdmin() {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
