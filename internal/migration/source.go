package migration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectLegacyClients = `SELECT kod_kado::text,
		COALESCE(telefon, ''),
		COALESCE(mobil, ''),
		COALESCE(clinic_id, 0),
		COALESCE(created_clinic_id, 0)
	FROM file_clients
	WHERE vymaz = 0
	ORDER BY kod_kado`

// LegacySource reads clients from the Vetais database.
type LegacySource struct {
	pool *pgxpool.Pool
}

func NewLegacySource(pool *pgxpool.Pool) *LegacySource {
	return &LegacySource{pool: pool}
}

// Clients returns every client not marked deleted.
func (s *LegacySource) Clients(ctx context.Context) ([]LegacyClient, error) {
	rows, err := s.pool.Query(ctx, selectLegacyClients)
	if err != nil {
		return nil, fmt.Errorf("query legacy clients: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (LegacyClient, error) {
		var c LegacyClient
		err := row.Scan(&c.LegacyID, &c.Phone, &c.Mobile, &c.ClinicID, &c.CreatedClinicID)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan legacy clients: %w", err)
	}
	return out, nil
}
