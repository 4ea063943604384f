package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// SwitchResult is the new session after a successful switch.
type SwitchResult struct {
	Session domain.SessionContext
	Tenant  *domain.Tenant
	Branch  *domain.Branch // nil when the tenant has no usable branch
	Tokens  TokenPair
	Changed bool
}

// SessionService owns tenant and branch switching.
type SessionService interface {
	SwitchTenant(ctx context.Context, sess domain.SessionContext, tenantID string) (*SwitchResult, error)
	SwitchBranch(ctx context.Context, sess domain.SessionContext, branchID string) (*SwitchResult, error)
}

// SelectorService lists what the identity may pick.
type SelectorService interface {
	AvailableBranches(ctx context.Context, sess domain.SessionContext) ([]domain.Branch, error)
	BranchSelector(ctx context.Context, sess domain.SessionContext) (domain.Selector, error)
	Tenants(ctx context.Context, sess domain.SessionContext) ([]domain.Tenant, error)
	TenantSelector(ctx context.Context, sess domain.SessionContext) (domain.Selector, error)
	Current(ctx context.Context, sess domain.SessionContext) (*domain.Tenant, *domain.Branch, error)
}
