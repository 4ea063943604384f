package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

type plainOpener struct{}

func (plainOpener) Open(sealed string) (string, error) { return "opened:" + sealed, nil }

func TestTenantRepository(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	repo := NewTenantRepository(db)

	tenant, err := repo.FindBySlug(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, "t1", tenant.ID)
	require.Equal(t, "alpha-vet.ru", tenant.CustomDomain)

	tenant, err = repo.FindByDomain(ctx, "ALPHA-VET.ru")
	require.NoError(t, err)
	require.Equal(t, "t1", tenant.ID)

	_, err = repo.FindByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrTenantNotFound)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "t1", active[0].ID)
}

func TestBranchRepository(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	repo := NewBranchRepository(db)

	all, err := repo.ListByTenant(ctx, "t1", false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	active, err := repo.ListByTenant(ctx, "t1", true)
	require.NoError(t, err)
	require.Equal(t, []string{"North", "South"}, []string{active[0].Name, active[1].Name})

	_, err = repo.FindByID(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestUserRepository(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	repo := NewUserRepository(db)

	u, err := repo.FindByUsername(ctx, "DOC")
	require.NoError(t, err)
	require.Equal(t, domain.RoleDoctor, u.Role)
	require.Equal(t, []string{"b2"}, u.BranchIDs)
	require.True(t, u.MemberOf("b2"))

	chief, err := repo.FindByID(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdministrator, chief.Role)
	require.Empty(t, chief.BranchIDs)

	require.NoError(t, repo.SetPreferredBranch(ctx, "u1", "b2"))
	require.NoError(t, repo.UpdateLastLogin(ctx, "u1", time.Now()))
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "b2", u.PreferredBranchID)
	require.NotNil(t, u.LastLoginAt)

	require.ErrorIs(t, repo.SetPreferredBranch(ctx, "ghost", "b1"), domain.ErrUserNotFound)
	_, err = repo.FindByID(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestOwnerRepository_FindByPhone(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	exec(t, db, `INSERT INTO owners (id, tenant_id, name, phone) VALUES
		('o1', 't1', 'Ivan', '+7 (916) 123-45-67'),
		('o2', 't1', 'Olga', '8 916 000 00 00')`)
	exec(t, db, `INSERT INTO patients (id, tenant_id, owner_id, name) VALUES
		('p1', 't1', 'o1', 'Barsik'),
		('p2', 't1', NULL, 'Sharik')`)
	exec(t, db, `INSERT INTO patient_owners (id, patient_id, owner_id, is_primary) VALUES ('l1', 'p2', 'o1', false)`)
	repo := NewOwnerRepository(db)

	owners, err := repo.FindByPhone(ctx, "t1", "+79161234567")
	require.NoError(t, err)
	require.Len(t, owners, 1)
	require.Equal(t, "o1", owners[0].ID)

	owners, err = repo.FindByPhone(ctx, "t2", "+79161234567")
	require.NoError(t, err)
	require.Empty(t, owners)

	patients, err := repo.PatientsByOwners(ctx, "t1", []string{"o1"})
	require.NoError(t, err)
	require.Len(t, patients, 2)
}

func TestCallLogRepository_Upsert(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	repo := NewCallLogRepository(db)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &domain.CallLog{
		ID: "c-1", TenantID: "t1", BranchID: "b1", ExternalCallID: "ext-1",
		Direction: domain.CallInbound, Status: domain.CallRinging, FromNumber: "+79161234567", StartedAt: start,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	end := start.Add(time.Minute)
	second := &domain.CallLog{
		ID: "c-2", TenantID: "t1", ExternalCallID: "ext-1",
		Direction: domain.CallInbound, Status: domain.CallMissed, StartedAt: start, EndedAt: &end,
	}
	require.NoError(t, repo.Upsert(ctx, second))
	require.Equal(t, "c-1", second.ID)

	var (
		count  int
		status string
		branch string
	)
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*), max(status), max(branch_id) FROM call_logs`).Scan(&count, &status, &branch))
	require.Equal(t, 1, count)
	require.Equal(t, "missed", status)
	require.Equal(t, "b1", branch)
}

func TestCredentialRepository(t *testing.T) {
	db := SetupTestDatabase(t)
	seedClinic(t, db)
	ctx := context.Background()
	exec(t, db, `INSERT INTO integration_credentials (id, tenant_id, branch_id, provider, api_key, secret_encrypted) VALUES
		('cr1', 't1', 'b1', 'mango', 'key-1', 'sealed'),
		('cr2', 't2', NULL, 'mango', 'key-2', 'sealed')`)
	repo := NewCredentialRepository(db, plainOpener{})

	c, err := repo.FindByAPIKey(ctx, "mango", "key-1")
	require.NoError(t, err)
	require.Equal(t, "t1", c.TenantID)
	require.Equal(t, "b1", c.BranchID)
	require.Equal(t, "opened:sealed", c.Secret)

	_, err = repo.FindByAPIKey(ctx, "mango", "key-2")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}
