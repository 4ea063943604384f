package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// Cookie names of the session tokens.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

const (
	sessionKey = "session"
	userKey    = "user"
)

// SessionResolver turns an access token into the live session.
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken string) (domain.SessionContext, *domain.User, error)
}

// Auth resolves the access token from the access_token cookie, falling back
// to a Bearer header, and stores the session in the echo context.
func Auth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := accessToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			sess, user, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			SetSession(c, sess, user)
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetSession stores the resolved identity on c.
func SetSession(c echo.Context, sess domain.SessionContext, user *domain.User) {
	c.Set(sessionKey, sess)
	c.Set(userKey, user)
}

// Session returns the session stored by Auth.
func Session(c echo.Context) (domain.SessionContext, bool) {
	sess, ok := c.Get(sessionKey).(domain.SessionContext)
	return sess, ok && sess.Authenticated()
}

// CurrentUser returns the user stored by Auth, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userKey).(*domain.User)
	return u
}
