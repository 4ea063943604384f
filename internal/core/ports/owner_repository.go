package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// OwnerRepository resolves callers to owners and their animals.
type OwnerRepository interface {
	// FindByPhone matches owners of the tenant whose stored phone normalises
	// to phone.
	FindByPhone(ctx context.Context, tenantID, phone string) ([]domain.Owner, error)
	PatientsByOwners(ctx context.Context, tenantID string, ownerIDs []string) ([]domain.Patient, error)
}

// CallLogRepository persists call records keyed by tenant and external call id.
type CallLogRepository interface {
	Upsert(ctx context.Context, log *domain.CallLog) error
}

// CredentialRepository loads telephony credentials with the secret decrypted.
type CredentialRepository interface {
	FindByAPIKey(ctx context.Context, provider, apiKey string) (*domain.IntegrationCredential, error)
}
