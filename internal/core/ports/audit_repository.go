package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// AuditRepository appends audit records.
type AuditRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
}
