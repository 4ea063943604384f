package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// SelectorService builds the tenant and branch lists visible to a session.
// Lists are always scoped server-side to the session's current tenant.
type SelectorService struct {
	users    ports.UserRepository
	tenants  ports.TenantRepository
	branches ports.BranchRepository
	cache    ports.SessionCache
	log      zerolog.Logger
}

func NewSelectorService(
	users ports.UserRepository,
	tenants ports.TenantRepository,
	branches ports.BranchRepository,
	cache ports.SessionCache,
	log zerolog.Logger,
) *SelectorService {
	return &SelectorService{users: users, tenants: tenants, branches: branches, cache: cache, log: log}
}

// AvailableBranches returns the branches of the current tenant the identity
// may select.
func (s *SelectorService) AvailableBranches(ctx context.Context, sess domain.SessionContext) ([]domain.Branch, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if sess.TenantID == "" {
		return []domain.Branch{}, nil
	}

	if cached, ok, err := s.cache.AvailableBranches(ctx, sess.UserID, sess.TenantID); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("branch cache read failed")
	} else if ok {
		return cached, nil
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("available branches: %w", err)
	}
	list, err := accessibleBranches(ctx, s.branches, user, sess.TenantID)
	if err != nil {
		return nil, fmt.Errorf("available branches: %w", err)
	}

	if err := s.cache.SetAvailableBranches(ctx, sess.UserID, sess.TenantID, list); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("branch cache write failed")
	}
	return list, nil
}

// BranchSelector returns the branch picker for sess.
func (s *SelectorService) BranchSelector(ctx context.Context, sess domain.SessionContext) (domain.Selector, error) {
	list, err := s.AvailableBranches(ctx, sess)
	if err != nil {
		return domain.Selector{}, err
	}
	return domain.NewSelector(domain.BranchOptions(list), sess.BranchID), nil
}

// Tenants lists active tenants. Only super-admins may call it.
func (s *SelectorService) Tenants(ctx context.Context, sess domain.SessionContext) ([]domain.Tenant, error) {
	if !sess.Role.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	list, err := s.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	if list == nil {
		list = []domain.Tenant{}
	}
	return list, nil
}

// TenantSelector returns the tenant picker for a super-admin.
func (s *SelectorService) TenantSelector(ctx context.Context, sess domain.SessionContext) (domain.Selector, error) {
	list, err := s.Tenants(ctx, sess)
	if err != nil {
		return domain.Selector{}, err
	}
	return domain.NewSelector(domain.TenantOptions(list), sess.TenantID), nil
}

// Current resolves the tenant and branch referenced by sess. Either may be
// nil when the session has no selection.
func (s *SelectorService) Current(ctx context.Context, sess domain.SessionContext) (*domain.Tenant, *domain.Branch, error) {
	var (
		tenant *domain.Tenant
		branch *domain.Branch
		err    error
	)
	if sess.TenantID != "" {
		tenant, err = s.tenants.FindByID(ctx, sess.TenantID)
		if err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
			return nil, nil, fmt.Errorf("current tenant: %w", err)
		}
	}
	if sess.BranchID != "" {
		branch, err = s.branches.FindByID(ctx, sess.BranchID)
		if err != nil && !errors.Is(err, domain.ErrBranchNotFound) {
			return nil, nil, fmt.Errorf("current branch: %w", err)
		}
	}
	return tenant, branch, nil
}

// accessibleBranches loads the tenant's active branches and filters them
// for user.
func accessibleBranches(ctx context.Context, repo ports.BranchRepository, user *domain.User, tenantID string) ([]domain.Branch, error) {
	if tenantID == "" {
		return []domain.Branch{}, nil
	}
	all, err := repo.ListByTenant(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	return domain.AccessibleBranches(user, all, tenantID), nil
}
