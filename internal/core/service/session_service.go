package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// SecurityAlerter reports suspicious session activity to operators.
type SecurityAlerter interface {
	SecurityAlert(ctx context.Context, subject, body string)
}

// SessionService switches the tenant or branch of an authenticated session.
type SessionService struct {
	users    ports.UserRepository
	tenants  ports.TenantRepository
	branches ports.BranchRepository
	cache    ports.SessionCache
	audit    ports.AuditRepository
	alerts   SecurityAlerter
	tokens   *TokenIssuer
	log      zerolog.Logger
}

func NewSessionService(
	users ports.UserRepository,
	tenants ports.TenantRepository,
	branches ports.BranchRepository,
	cache ports.SessionCache,
	audit ports.AuditRepository,
	alerts SecurityAlerter,
	tokens *TokenIssuer,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		tenants:  tenants,
		branches: branches,
		cache:    cache,
		audit:    audit,
		alerts:   alerts,
		tokens:   tokens,
		log:      log,
	}
}

// SwitchBranch moves sess to branchID inside its current tenant. The input
// session is never modified; on success a new session and token pair are
// returned.
func (s *SessionService) SwitchBranch(ctx context.Context, sess domain.SessionContext, branchID string) (*ports.SwitchResult, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if branchID == "" {
		return nil, domain.ErrBranchNotFound
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("switch branch: %w", err)
	}
	if !user.Active() {
		return nil, domain.ErrUserBlocked
	}

	branch, err := s.branches.FindByID(ctx, branchID)
	if err != nil && !errors.Is(err, domain.ErrBranchNotFound) {
		return nil, fmt.Errorf("switch branch: %w", err)
	}
	if err := domain.CheckBranch(user, branch, sess.TenantID); err != nil {
		if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrBranchNotInTenant) {
			s.rejected(ctx, sess, branchID, err)
		}
		return nil, err
	}

	tenant, err := s.tenants.FindByID(ctx, sess.TenantID)
	if err != nil {
		return nil, fmt.Errorf("switch branch: %w", err)
	}

	if branchID == sess.BranchID {
		return &ports.SwitchResult{Session: sess, Tenant: tenant, Branch: branch}, nil
	}

	next := sess.WithBranch(branchID)
	tokens, err := s.tokens.Issue(next)
	if err != nil {
		return nil, fmt.Errorf("switch branch: %w", err)
	}

	if err := s.users.SetPreferredBranch(ctx, user.ID, branchID); err != nil {
		return nil, fmt.Errorf("switch branch: %w", err)
	}
	if err := s.cache.Invalidate(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("session cache invalidation failed")
	}
	if err := s.cache.SetPreferredBranch(ctx, user.ID, sess.TenantID, branchID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("preference cache write failed")
	}

	s.record(ctx, domain.AuditEntry{
		Action:   domain.AuditBranchSwitched,
		UserID:   user.ID,
		TenantID: sess.TenantID,
		BranchID: branchID,
		Target:   branchID,
		Details:  map[string]string{"from": sess.BranchID},
		At:       time.Now().UTC(),
	})
	s.log.Info().
		Str("user_id", user.ID).
		Str("tenant_id", sess.TenantID).
		Str("from", sess.BranchID).
		Str("to", branchID).
		Msg("branch switched")

	return &ports.SwitchResult{
		Session: next,
		Tenant:  tenant,
		Branch:  branch,
		Tokens:  tokens,
		Changed: true,
	}, nil
}

// SwitchTenant moves a super-admin into tenantID and selects the first
// usable branch there. The branch is empty when the tenant has none.
func (s *SessionService) SwitchTenant(ctx context.Context, sess domain.SessionContext, tenantID string) (*ports.SwitchResult, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !sess.Role.IsSuperAdmin() {
		s.rejected(ctx, sess, tenantID, domain.ErrForbidden)
		return nil, domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("switch tenant: %w", err)
	}
	if !user.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("switch tenant: %w", err)
	}
	if !tenant.Active() {
		return nil, domain.ErrTenantInactive
	}

	accessible, err := accessibleBranches(ctx, s.branches, user, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("switch tenant: %w", err)
	}
	branchID := domain.DefaultBranch(accessible, "", "")

	next := sess.WithTenant(tenant.ID, branchID)
	changed := next != sess
	var tokens ports.TokenPair
	if changed {
		tokens, err = s.tokens.Issue(next)
		if err != nil {
			return nil, fmt.Errorf("switch tenant: %w", err)
		}
		if err := s.cache.Invalidate(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("session cache invalidation failed")
		}
		s.record(ctx, domain.AuditEntry{
			Action:   domain.AuditTenantSwitched,
			UserID:   user.ID,
			TenantID: tenant.ID,
			BranchID: branchID,
			Target:   tenant.ID,
			Details:  map[string]string{"from": sess.TenantID},
			At:       time.Now().UTC(),
		})
		s.log.Info().
			Str("user_id", user.ID).
			Str("from", sess.TenantID).
			Str("to", tenant.ID).
			Str("branch_id", branchID).
			Msg("tenant switched")
	}

	return &ports.SwitchResult{
		Session: next,
		Tenant:  tenant,
		Branch:  findBranch(accessible, branchID),
		Tokens:  tokens,
		Changed: changed,
	}, nil
}

func (s *SessionService) rejected(ctx context.Context, sess domain.SessionContext, target string, reason error) {
	s.log.Warn().
		Str("user_id", sess.UserID).
		Str("role", sess.Role.String()).
		Str("tenant_id", sess.TenantID).
		Str("target", target).
		Err(reason).
		Msg("security: unauthorized switch attempt")

	s.record(ctx, domain.AuditEntry{
		Action:   domain.AuditSwitchRejected,
		UserID:   sess.UserID,
		TenantID: sess.TenantID,
		BranchID: sess.BranchID,
		Target:   target,
		Details:  map[string]string{"reason": reason.Error()},
		At:       time.Now().UTC(),
	})

	if s.alerts != nil && errors.Is(reason, domain.ErrForbidden) {
		s.alerts.SecurityAlert(ctx,
			"Unauthorized switch attempt",
			fmt.Sprintf("user %s (%s) in tenant %q tried to switch to %q: %v",
				sess.Username, sess.UserID, sess.TenantID, target, reason))
	}
}

func (s *SessionService) record(ctx context.Context, entry domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to insert audit entry")
	}
}
