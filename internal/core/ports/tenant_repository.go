package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// TenantRepository reads clinic organisations.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	FindByDomain(ctx context.Context, host string) (*domain.Tenant, error)
	// ListActive returns active tenants ordered by name.
	ListActive(ctx context.Context) ([]domain.Tenant, error)
}

// BranchRepository reads physical locations.
type BranchRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Branch, error)
	// ListByTenant returns the tenant's branches ordered by name.
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error)
}
