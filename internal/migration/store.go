package migration

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ownerPhone is the stored owner phone in normalised form. It matches the
// expression index on owners.
const ownerPhone = `regexp_replace(phone, '[^0-9+]', '', 'g')`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PatientLink is a patient whose direct owner has no row in the link table.
type PatientLink struct {
	PatientID string
	OwnerID   string
}

// Store writes migration batches to the main database.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpdateOwnerBranches sets branch_id for owners matched by phone and
// returns the number of rows changed.
func (s *Store) UpdateOwnerBranches(ctx context.Context, tenantID string, batch []BranchUpdate) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	byPhone := sq.Case(ownerPhone)
	phones := make([]string, 0, len(batch))
	for _, u := range batch {
		byPhone = byPhone.When(sq.Expr("?", u.Phone), sq.Expr("?", u.BranchID))
		phones = append(phones, u.Phone)
	}
	byPhone = byPhone.Else("branch_id")

	q, args, err := psql.Update("owners").
		Set("branch_id", byPhone).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Expr(ownerPhone+" = ANY(?)", phones)).
		Where(sq.Expr("branch_id IS DISTINCT FROM (?)", byPhone)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build branch update: %w", err)
	}
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("update owner branches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// BackfillLegacyIDs sets legacy_id on owners that have none and returns
// the number of rows changed.
func (s *Store) BackfillLegacyIDs(ctx context.Context, tenantID string, batch []LegacyIDUpdate) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	byPhone := sq.Case(ownerPhone)
	phones := make([]string, 0, len(batch))
	for _, u := range batch {
		byPhone = byPhone.When(sq.Expr("?", u.Phone), sq.Expr("?", u.LegacyID))
		phones = append(phones, u.Phone)
	}

	q, args, err := psql.Update("owners").
		Set("legacy_id", byPhone).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"tenant_id": tenantID, "legacy_id": nil}).
		Where(sq.Expr(ownerPhone+" = ANY(?)", phones)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build legacy id update: %w", err)
	}
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("backfill legacy ids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UnlinkedPatients returns patients whose owner_id has no link row yet,
// oldest first.
func (s *Store) UnlinkedPatients(ctx context.Context, tenantID string) ([]PatientLink, error) {
	q, args, err := psql.Select("p.id", "p.owner_id").
		From("patients p").
		Where(sq.Eq{"p.tenant_id": tenantID}).
		Where(sq.NotEq{"p.owner_id": nil}).
		Where(`NOT EXISTS (SELECT 1 FROM patient_owners po WHERE po.patient_id = p.id AND po.owner_id = p.owner_id)`).
		OrderBy("p.created_at", "p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unlinked patients query: %w", err)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query unlinked patients: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PatientLink, error) {
		var l PatientLink
		err := row.Scan(&l.PatientID, &l.OwnerID)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan unlinked patients: %w", err)
	}
	return out, nil
}

// InsertPrimaryLinks writes batch as primary links in one transaction.
// Existing pairs are left alone.
func (s *Store) InsertPrimaryLinks(ctx context.Context, batch []PatientLink) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	stmt := psql.Insert("patient_owners").
		Columns("id", "patient_id", "owner_id", "is_primary").
		Suffix("ON CONFLICT (patient_id, owner_id) DO NOTHING")
	for _, l := range batch {
		id, err := uuid.NewV4()
		if err != nil {
			return 0, fmt.Errorf("generate link id: %w", err)
		}
		stmt = stmt.Values(id.String(), l.PatientID, l.OwnerID, true)
	}
	q, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build link insert: %w", err)
	}

	var inserted int64
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert patient links: %w", err)
	}
	return inserted, nil
}

// PatientsWithoutPrimary counts patients that have an owner_id but no
// primary link.
func (s *Store) PatientsWithoutPrimary(ctx context.Context, tenantID string) (int64, error) {
	const q = `SELECT count(*)
		FROM patients p
		LEFT JOIN patient_owners po ON po.patient_id = p.id AND po.is_primary
		WHERE p.tenant_id = $1 AND p.owner_id IS NOT NULL AND po.id IS NULL`
	var n int64
	if err := s.pool.QueryRow(ctx, q, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients without primary owner: %w", err)
	}
	return n, nil
}
