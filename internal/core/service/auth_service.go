package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// AuthService implements login, refresh, logout and per-request session
// resolution.
type AuthService struct {
	users    ports.UserRepository
	tenants  ports.TenantRepository
	branches ports.BranchRepository
	cache    ports.SessionCache
	revoked  ports.TokenRevocation
	audit    ports.AuditRepository
	tokens   *TokenIssuer
	log      zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tenants ports.TenantRepository,
	branches ports.BranchRepository,
	cache ports.SessionCache,
	revoked ports.TokenRevocation,
	audit ports.AuditRepository,
	tokens *TokenIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tenants:  tenants,
		branches: branches,
		cache:    cache,
		revoked:  revoked,
		audit:    audit,
		tokens:   tokens,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, domain.ErrUserBlocked
	}
	if !user.Role.Valid() {
		s.log.Warn().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("login with unknown role")
		return nil, domain.ErrForbidden
	}

	if in.PlatformHost && !user.IsSuperAdmin() {
		s.log.Warn().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("platform host login refused")
		return nil, domain.ErrForbidden
	}

	tenant, err := s.loginTenant(ctx, user, in.HostTenant)
	if err != nil {
		return nil, err
	}
	tenantID := ""
	if tenant != nil {
		tenantID = tenant.ID
	}

	if in.BranchID != "" {
		requested, err := s.branches.FindByID(ctx, in.BranchID)
		if err != nil && !errors.Is(err, domain.ErrBranchNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		if err := domain.CheckBranch(user, requested, tenantID); err != nil {
			return nil, err
		}
	}

	accessible, err := accessibleBranches(ctx, s.branches, user, tenantID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	preferred := s.preferredBranch(ctx, user, tenantID)
	branchID := domain.DefaultBranch(accessible, in.BranchID, preferred)

	sess := domain.SessionContext{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		TenantID: tenantID,
		BranchID: branchID,
	}
	tokens, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}
	s.record(ctx, domain.AuditEntry{
		Action:   domain.AuditLogin,
		UserID:   user.ID,
		TenantID: tenantID,
		BranchID: branchID,
		At:       now,
	})

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", user.Role.String()).
		Str("tenant_id", tenantID).
		Str("branch_id", branchID).
		Msg("user logged in")

	return &ports.LoginResult{
		User:    user,
		Session: sess,
		Tenant:  tenant,
		Branch:  findBranch(accessible, branchID),
		Tokens:  tokens,
	}, nil
}

// Refresh rotates the token pair. The previous refresh token is claimed
// before anything else, so it can be exchanged once, and the session is
// re-validated against the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	claims, err := s.tokens.Parse(refreshToken, tokenKindRefresh)
	if err != nil {
		return nil, err
	}
	claimed, err := s.revoked.Claim(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !claimed {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.liveUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	prev := claims.Session()
	tenantID := prev.TenantID
	if !user.IsSuperAdmin() {
		tenantID = user.TenantID
	}
	var tenant *domain.Tenant
	if tenantID != "" {
		tenant, err = s.tenants.FindByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				return nil, domain.ErrUnauthenticated
			}
			return nil, fmt.Errorf("refresh: %w", err)
		}
		if !tenant.Active() {
			return nil, domain.ErrTenantInactive
		}
	}

	accessible, err := accessibleBranches(ctx, s.branches, user, tenantID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	branchID := domain.DefaultBranch(accessible, prev.BranchID, s.preferredBranch(ctx, user, tenantID))

	sess := domain.SessionContext{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		TenantID: tenantID,
		BranchID: branchID,
	}
	tokens, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &ports.LoginResult{
		User:    user,
		Session: sess,
		Tenant:  tenant,
		Branch:  findBranch(accessible, branchID),
		Tokens:  tokens,
	}, nil
}

// Logout revokes the refresh token. Invalid or missing tokens are ignored so
// that logout always succeeds from the client's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.Parse(refreshToken, tokenKindRefresh)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := s.cache.Invalidate(ctx, claims.Subject); err != nil {
		s.log.Warn().Err(err).Str("user_id", claims.Subject).Msg("failed to drop session cache on logout")
	}
	return nil
}

// Resolve validates the access token and re-checks the identity against the
// store. The role always comes from the store, never from the token.
func (s *AuthService) Resolve(ctx context.Context, accessToken string) (domain.SessionContext, *domain.User, error) {
	claims, err := s.tokens.Parse(accessToken, tokenKindAccess)
	if err != nil {
		return domain.SessionContext{}, nil, err
	}
	user, err := s.liveUser(ctx, claims.Subject)
	if err != nil {
		return domain.SessionContext{}, nil, err
	}

	sess := claims.Session()
	sess.Role = user.Role
	sess.Username = user.Username
	if !user.IsSuperAdmin() && sess.TenantID != user.TenantID {
		return domain.SessionContext{}, nil, domain.ErrUnauthenticated
	}
	return sess, user, nil
}

func (s *AuthService) liveUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active() {
		return nil, domain.ErrUserBlocked
	}
	return user, nil
}

// loginTenant decides the tenant a new session starts in. Regular users are
// pinned to their own tenant and must log in through its host; super-admins
// start in the host tenant or, on the platform host, the first active one.
func (s *AuthService) loginTenant(ctx context.Context, user *domain.User, hostTenant string) (*domain.Tenant, error) {
	tenantID := user.TenantID
	if user.IsSuperAdmin() {
		tenantID = hostTenant
		if tenantID == "" {
			active, err := s.tenants.ListActive(ctx)
			if err != nil {
				return nil, fmt.Errorf("login: %w", err)
			}
			if len(active) == 0 {
				return nil, nil
			}
			return &active[0], nil
		}
	} else if hostTenant != "" && hostTenant != user.TenantID {
		return nil, domain.ErrInvalidCredentials
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !tenant.Active() {
		return nil, domain.ErrTenantInactive
	}
	return tenant, nil
}

func (s *AuthService) preferredBranch(ctx context.Context, user *domain.User, tenantID string) string {
	if tenantID == "" {
		return ""
	}
	pref, err := s.cache.PreferredBranch(ctx, user.ID, tenantID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("preference cache read failed")
	}
	if pref != "" {
		return pref
	}
	return user.PreferredBranchID
}

func (s *AuthService) record(ctx context.Context, entry domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to insert audit entry")
	}
}

func findBranch(list []domain.Branch, id string) *domain.Branch {
	for i := range list {
		if list[i].ID == id {
			b := list[i]
			return &b
		}
	}
	return nil
}
