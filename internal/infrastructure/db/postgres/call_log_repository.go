package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// CallLogRepository stores one row per (tenant, external call id).
type CallLogRepository struct {
	pool *pgxpool.Pool
}

func NewCallLogRepository(pool *pgxpool.Pool) ports.CallLogRepository {
	return &CallLogRepository{pool: pool}
}

// Upsert inserts the call or advances the existing row. Timestamps already
// recorded are kept when the new event does not carry them, and a matched
// owner is never unset. On conflict l.ID is replaced with the stored id.
func (r *CallLogRepository) Upsert(ctx context.Context, l *domain.CallLog) error {
	const q = `INSERT INTO call_logs (
			id, tenant_id, branch_id, external_call_id, direction, status,
			from_number, to_number, owner_id, started_at, answered_at, ended_at, duration
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id, external_call_id) DO UPDATE SET
			status      = EXCLUDED.status,
			branch_id   = COALESCE(call_logs.branch_id, EXCLUDED.branch_id),
			owner_id    = COALESCE(EXCLUDED.owner_id, call_logs.owner_id),
			answered_at = COALESCE(EXCLUDED.answered_at, call_logs.answered_at),
			ended_at    = COALESCE(EXCLUDED.ended_at, call_logs.ended_at),
			duration    = GREATEST(EXCLUDED.duration, call_logs.duration),
			updated_at  = now()
		RETURNING id`

	err := r.pool.QueryRow(ctx, q,
		l.ID,
		l.TenantID,
		zeronull.Text(l.BranchID),
		l.ExternalCallID,
		l.Direction,
		l.Status,
		l.FromNumber,
		l.ToNumber,
		zeronull.Text(l.OwnerID),
		l.StartedAt,
		l.AnsweredAt,
		l.EndedAt,
		l.Duration,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("upsert call log: %w", err)
	}
	return nil
}
