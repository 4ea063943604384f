package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// SecretOpener decrypts secrets stored at rest.
type SecretOpener interface {
	Open(sealed string) (string, error)
}

// CredentialRepository loads telephony credentials and decrypts their salt.
type CredentialRepository struct {
	pool   *pgxpool.Pool
	secret SecretOpener
}

func NewCredentialRepository(pool *pgxpool.Pool, secret SecretOpener) ports.CredentialRepository {
	return &CredentialRepository{pool: pool, secret: secret}
}

func (r *CredentialRepository) FindByAPIKey(ctx context.Context, provider, apiKey string) (*domain.IntegrationCredential, error) {
	const q = `SELECT c.id, c.tenant_id, c.branch_id, c.provider, c.api_key, c.secret_encrypted
		FROM integration_credentials c
		JOIN tenants t ON t.id = c.tenant_id
		WHERE c.provider = $1 AND c.api_key = $2 AND t.status = 'active'`

	var (
		c      domain.IntegrationCredential
		sealed string
	)
	err := r.pool.QueryRow(ctx, q, provider, apiKey).Scan(
		&c.ID,
		&c.TenantID,
		(*zeronull.Text)(&c.BranchID),
		&c.Provider,
		&c.APIKey,
		&sealed,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	c.Secret, err = r.secret.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential %s: %w", c.ID, err)
	}
	return &c, nil
}
