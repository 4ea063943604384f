package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

const (
	hostTenantKey   = "host_tenant"
	platformHostKey = "platform_host"

	platformSubdomain = "admin"
)

// TenantLookup finds tenants by the host they are served on.
type TenantLookup interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	FindByDomain(ctx context.Context, host string) (*domain.Tenant, error)
}

// TenantHosts configures host based tenant resolution.
type TenantHosts struct {
	BaseDomain      string
	DefaultTenantID string
}

// ResolveTenant maps the request host onto a tenant:
//
//	localhost, 127.0.0.1   the default tenant
//	admin.<base>           the platform host, no tenant
//	<slug>.<base>          tenant by slug
//	anything else          tenant by custom domain
//
// Unknown hosts answer 404, suspended or cancelled tenants 403.
func ResolveTenant(tenants TenantLookup, hosts TenantHosts) echo.MiddlewareFunc {
	base := strings.ToLower(strings.TrimPrefix(hosts.BaseDomain, "www."))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host := RequestHost(c.Request())

			if host == "localhost" || host == "127.0.0.1" {
				SetHostTenant(c, hosts.DefaultTenantID)
				return next(c)
			}

			var (
				tenant *domain.Tenant
				err    error
			)
			ctx := c.Request().Context()
			switch sub, ok := subdomain(host, base); {
			case ok && sub == platformSubdomain:
				c.Set(platformHostKey, true)
				return next(c)
			case ok:
				tenant, err = tenants.FindBySlug(ctx, sub)
			default:
				tenant, err = tenants.FindByDomain(ctx, host)
			}
			if err != nil {
				if errors.Is(err, domain.ErrTenantNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "no clinic found for domain "+host)
				}
				return err
			}

			switch tenant.Status {
			case domain.TenantSuspended:
				return echo.NewHTTPError(http.StatusForbidden, "this clinic account has been suspended")
			case domain.TenantCancelled:
				return echo.NewHTTPError(http.StatusForbidden, "this clinic subscription has been cancelled")
			}

			SetHostTenant(c, tenant.ID)
			return next(c)
		}
	}
}

// RequestHost normalises the host of r: X-Forwarded-Host first, port and
// www. stripped, lowercased.
func RequestHost(r *http.Request) string {
	raw := r.Header.Get("X-Forwarded-Host")
	if raw == "" {
		raw = r.Host
	}
	raw = strings.TrimSpace(strings.Split(raw, ",")[0])
	if i := strings.LastIndex(raw, ":"); i >= 0 && !strings.Contains(raw[i:], "]") {
		raw = raw[:i]
	}
	raw = strings.ToLower(raw)
	return strings.TrimPrefix(raw, "www.")
}

// subdomain returns the first label of host when host is a subdomain of base.
func subdomain(host, base string) (string, bool) {
	if base == "" || !strings.HasSuffix(host, "."+base) {
		return "", false
	}
	rest := strings.TrimSuffix(host, "."+base)
	if i := strings.Index(rest, "."); i >= 0 {
		rest = rest[:i]
	}
	return rest, rest != ""
}

// SetHostTenant records the tenant resolved from the host.
func SetHostTenant(c echo.Context, tenantID string) {
	c.Set(hostTenantKey, tenantID)
}

// HostTenant returns the tenant id resolved from the host, "" on the
// platform host or when resolution did not run.
func HostTenant(c echo.Context) string {
	id, _ := c.Get(hostTenantKey).(string)
	return id
}

// PlatformHost reports whether the request came in on admin.<base>.
func PlatformHost(c echo.Context) bool {
	v, _ := c.Get(platformHostKey).(bool)
	return v
}
