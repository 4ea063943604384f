package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

const selectTenant = `SELECT id, name, slug, custom_domain, status, created_at, updated_at FROM tenants`

// TenantRepository reads tenants from Postgres.
type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) ports.TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.findOne(ctx, selectTenant+` WHERE id = $1`, id)
}

func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.findOne(ctx, selectTenant+` WHERE slug = $1`, slug)
}

func (r *TenantRepository) FindByDomain(ctx context.Context, host string) (*domain.Tenant, error) {
	return r.findOne(ctx, selectTenant+` WHERE lower(custom_domain) = lower($1)`, host)
}

// ListActive returns active tenants ordered by name.
func (r *TenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.pool.Query(ctx, selectTenant+` WHERE status = $1 ORDER BY name, id`, domain.TenantActive)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TenantRepository) findOne(ctx context.Context, q string, arg string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		(*zeronull.Text)(&t.CustomDomain),
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// BranchRepository reads branches from Postgres.
type BranchRepository struct {
	pool *pgxpool.Pool
}

func NewBranchRepository(pool *pgxpool.Pool) ports.BranchRepository {
	return &BranchRepository{pool: pool}
}

func branchSelect() sq.SelectBuilder {
	return sq.Select(
		"id",
		"tenant_id",
		"name",
		"city",
		"address",
		"phone",
		"status",
		"created_at",
		"updated_at",
	).From("branches").PlaceholderFormat(sq.Dollar)
}

func (r *BranchRepository) FindByID(ctx context.Context, id string) (*domain.Branch, error) {
	q, args, err := branchSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	b, err := scanBranch(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, fmt.Errorf("find branch: %w", err)
	}
	return b, nil
}

// ListByTenant returns the tenant's branches ordered by name.
func (r *BranchRepository) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error) {
	stmt := branchSelect().Where(sq.Eq{"tenant_id": tenantID}).OrderBy("name", "id")
	if activeOnly {
		stmt = stmt.Where(sq.Eq{"status": domain.BranchActive})
	}
	q, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Branch, 0)
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBranch(row pgx.Row) (*domain.Branch, error) {
	var b domain.Branch
	err := row.Scan(
		&b.ID,
		&b.TenantID,
		&b.Name,
		&b.City,
		&b.Address,
		(*zeronull.Text)(&b.Phone),
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
