package ports

import (
	"context"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// LoginInput is the DTO passed from the transport layer to AuthService.
type LoginInput struct {
	Username   string
	Password   string
	BranchID   string // optional
	HostTenant string // tenant resolved from the request host, "" on the platform host
	// PlatformHost is set for requests on admin.<base>; only super-admins
	// may log in there.
	PlatformHost bool
}

// TokenPair holds signed access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User    *domain.User
	Session domain.SessionContext
	Tenant  *domain.Tenant
	Branch  *domain.Branch
	Tokens  TokenPair
}

// AuthService authenticates identities and manages token lifetimes.
type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	// Resolve validates an access token and returns the live session.
	Resolve(ctx context.Context, accessToken string) (domain.SessionContext, *domain.User, error)
}
