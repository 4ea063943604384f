package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/api/middleware"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// ctxSession returns the session injected by the Auth middleware. Its
// absence means the route was mounted without Auth, which is treated as an
// anonymous request.
func ctxSession(c echo.Context) (domain.SessionContext, error) {
	sess, ok := middleware.Session(c)
	if !ok {
		return domain.SessionContext{}, domain.ErrUnauthenticated
	}
	return sess, nil
}
