package ports

import (
	"context"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// UserRepository defines persistence for authenticated identities.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// SetPreferredBranch stores the durable branch preference. An empty
	// branchID clears it.
	SetPreferredBranch(ctx context.Context, userID, branchID string) error
}
