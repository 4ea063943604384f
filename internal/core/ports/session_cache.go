package ports

import (
	"context"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// SessionCache holds per-user scope data that can be rebuilt from the
// relational store at any time.
type SessionCache interface {
	// PreferredBranch returns "" on a cache miss.
	PreferredBranch(ctx context.Context, userID, tenantID string) (string, error)
	SetPreferredBranch(ctx context.Context, userID, tenantID, branchID string) error

	AvailableBranches(ctx context.Context, userID, tenantID string) ([]domain.Branch, bool, error)
	SetAvailableBranches(ctx context.Context, userID, tenantID string, branches []domain.Branch) error

	// Invalidate drops every scoped entry cached for the user.
	Invalidate(ctx context.Context, userID string) error
}

// TokenRevocation tracks refresh tokens invalidated before expiry.
type TokenRevocation interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	// Claim atomically marks jti as used. It reports false when jti was
	// already revoked or claimed.
	Claim(ctx context.Context, jti string, until time.Time) (bool, error)
}

// CallDedup suppresses repeated processing of the same call state.
type CallDedup interface {
	IsDuplicate(ctx context.Context, callID string, status domain.CallStatus, seq int) (bool, error)
	Mark(ctx context.Context, callID string, status domain.CallStatus, seq int) error
}
