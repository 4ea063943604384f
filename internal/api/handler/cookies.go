package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/api/middleware"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// CookieConfig controls the session cookies. Secure is on outside
// development.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) set(c echo.Context, tokens ports.TokenPair) {
	c.SetCookie(cc.cookie(middleware.AccessCookie, tokens.AccessToken, "/", tokens.AccessExpiresAt))
	c.SetCookie(cc.cookie(middleware.RefreshCookie, tokens.RefreshToken, "/api/auth", tokens.RefreshExpiresAt))
}

func (cc CookieConfig) clear(c echo.Context) {
	for _, ck := range []*http.Cookie{
		cc.cookie(middleware.AccessCookie, "", "/", time.Unix(0, 0)),
		cc.cookie(middleware.RefreshCookie, "", "/api/auth", time.Unix(0, 0)),
	} {
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (cc CookieConfig) cookie(name, value, path string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if !expires.IsZero() && value != "" {
		ck.MaxAge = int(time.Until(expires).Seconds())
	}
	return ck
}
