package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// AccessGuard answers module access questions for routes and menus.
type AccessGuard struct {
	table domain.PermissionTable
	audit ports.AuditRepository
	log   zerolog.Logger
}

// NewAccessGuard validates table and returns a guard over it. A nil audit
// repository disables denial auditing.
func NewAccessGuard(table domain.PermissionTable, audit ports.AuditRepository, log zerolog.Logger) (*AccessGuard, error) {
	if err := domain.ValidatePermissions(table); err != nil {
		return nil, fmt.Errorf("access guard: %w", err)
	}
	return &AccessGuard{table: table, audit: audit, log: log}, nil
}

// HasPermission is the pure role/module predicate.
func (g *AccessGuard) HasPermission(role domain.Role, module domain.Module) bool {
	return g.table.HasPermission(role, module)
}

// Allow checks sess against module and records denials.
func (g *AccessGuard) Allow(ctx context.Context, sess domain.SessionContext, module domain.Module) bool {
	if g.table.HasPermission(sess.Role, module) {
		return true
	}

	g.log.Warn().
		Str("user_id", sess.UserID).
		Str("role", sess.Role.String()).
		Str("module", string(module)).
		Msg("module access denied")

	if g.audit != nil {
		entry := domain.AuditEntry{
			Action:   domain.AuditAccessDenied,
			UserID:   sess.UserID,
			TenantID: sess.TenantID,
			BranchID: sess.BranchID,
			Target:   string(module),
			Details:  map[string]string{"role": sess.Role.String()},
			At:       time.Now().UTC(),
		}
		if err := g.audit.Insert(ctx, entry); err != nil {
			g.log.Warn().Err(err).Msg("failed to audit access denial")
		}
	}
	return false
}

// Modules lists the modules role may open.
func (g *AccessGuard) Modules(role domain.Role) []domain.Module {
	return g.table.Modules(role)
}

// Navigation filters the default menu for role.
func (g *AccessGuard) Navigation(role domain.Role) []domain.NavItem {
	return g.Visible(role, domain.DefaultNavigation)
}

// Visible keeps the items role may see, in their original order.
func (g *AccessGuard) Visible(role domain.Role, items []domain.NavItem) []domain.NavItem {
	out := make([]domain.NavItem, 0, len(items))
	for _, item := range items {
		if !g.table.HasPermission(role, item.Module) {
			continue
		}
		if item.ManagerOnly && !role.IsManagerTier() {
			continue
		}
		out = append(out, item)
	}
	return out
}
