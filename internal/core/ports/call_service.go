package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// CallService processes telephony events after they have been authenticated.
type CallService interface {
	Process(ctx context.Context, event domain.CallEvent) error
}
