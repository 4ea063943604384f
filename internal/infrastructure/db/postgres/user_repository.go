package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype/zeronull"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

const selectUser = `SELECT
		u.id,
		u.tenant_id,
		u.username,
		u.full_name,
		u.email,
		u.phone,
		u.password_hash,
		u.role,
		u.status,
		u.branch_id,
		u.preferred_branch_id,
		u.locale,
		u.last_login_at,
		u.created_at,
		u.updated_at,
		COALESCE((SELECT array_agg(ub.branch_id ORDER BY ub.branch_id) FROM user_branches ub WHERE ub.user_id = u.id), '{}')
	FROM users u`

// UserRepository reads and updates users in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE u.id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE lower(u.username) = lower($1)`, username)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetPreferredBranch(ctx context.Context, userID, branchID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET preferred_branch_id = $2, updated_at = now() WHERE id = $1`,
		userID, zeronull.Text(branchID))
	if err != nil {
		return fmt.Errorf("set preferred branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, q, arg string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		(*zeronull.Text)(&u.TenantID),
		&u.Username,
		&u.FullName,
		(*zeronull.Text)(&u.Email),
		(*zeronull.Text)(&u.Phone),
		&u.PasswordHash,
		&role,
		&u.Status,
		(*zeronull.Text)(&u.BranchID),
		(*zeronull.Text)(&u.PreferredBranchID),
		(*zeronull.Text)(&u.Locale),
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.BranchIDs,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.ParseRole(role)
	return &u, nil
}
