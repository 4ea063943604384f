package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// maxPhoneMatches bounds the owners returned for one caller.
const maxPhoneMatches = 10

// OwnerRepository matches callers against owners.
type OwnerRepository struct {
	pool *pgxpool.Pool
}

func NewOwnerRepository(pool *pgxpool.Pool) ports.OwnerRepository {
	return &OwnerRepository{pool: pool}
}

// FindByPhone compares the normalised stored phone with phone.
func (r *OwnerRepository) FindByPhone(ctx context.Context, tenantID, phone string) ([]domain.Owner, error) {
	const q = `SELECT id, tenant_id, branch_id, name, phone, legacy_id
		FROM owners
		WHERE tenant_id = $1 AND regexp_replace(phone, '[^0-9+]', '', 'g') = $2
		ORDER BY name, id
		LIMIT $3`

	rows, err := r.pool.Query(ctx, q, tenantID, phone, maxPhoneMatches)
	if err != nil {
		return nil, fmt.Errorf("find owners by phone: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Owner, 0)
	for rows.Next() {
		var o domain.Owner
		if err := rows.Scan(
			&o.ID,
			&o.TenantID,
			(*zeronull.Text)(&o.BranchID),
			&o.Name,
			&o.Phone,
			(*zeronull.Text)(&o.LegacyID),
		); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PatientsByOwners returns the animals linked to any of ownerIDs, through
// either the link table or the direct owner column.
func (r *OwnerRepository) PatientsByOwners(ctx context.Context, tenantID string, ownerIDs []string) ([]domain.Patient, error) {
	if len(ownerIDs) == 0 {
		return []domain.Patient{}, nil
	}
	const q = `SELECT DISTINCT ON (p.id) p.id, p.tenant_id, COALESCE(po.owner_id, p.owner_id), p.name, p.species
		FROM patients p
		LEFT JOIN patient_owners po ON po.patient_id = p.id AND po.owner_id = ANY($2)
		WHERE p.tenant_id = $1 AND (po.owner_id IS NOT NULL OR p.owner_id = ANY($2))
		ORDER BY p.id`

	rows, err := r.pool.Query(ctx, q, tenantID, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("patients by owners: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Patient, 0)
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(&p.ID, &p.TenantID, (*zeronull.Text)(&p.OwnerID), &p.Name, &p.Species); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
