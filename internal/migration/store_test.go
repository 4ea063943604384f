package migration

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/db/postgres"
)

func setupStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, postgres.Migrate(dsn))

	pool, err := postgres.Connect(context.Background(), postgres.Config{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	mustExec(t, pool, `TRUNCATE call_logs, integration_credentials, patient_owners, patients, owners,
		user_branches, users, branches, tenants CASCADE`)
	mustExec(t, pool, `INSERT INTO tenants (id, name, slug, status) VALUES ('t1', 'Alpha Vet', 'alpha', 'active')`)
	mustExec(t, pool, `INSERT INTO branches (id, tenant_id, name, status) VALUES
		('b1', 't1', 'Бутово', 'active'), ('b2', 't1', 'Лобачевского', 'active')`)
	mustExec(t, pool, `INSERT INTO owners (id, tenant_id, branch_id, name, phone, legacy_id) VALUES
		('o1', 't1', NULL, 'Ivan', '+7 (916) 000-00-01', NULL),
		('o2', 't1', 'b2', 'Olga', '+79160000002', 'L-2'),
		('o3', 't1', NULL, 'Petr', '8 916 000 00 03', NULL)`)
	mustExec(t, pool, `INSERT INTO patients (id, tenant_id, owner_id, name) VALUES
		('p1', 't1', 'o1', 'Barsik'), ('p2', 't1', 'o2', 'Sharik'), ('p3', 't1', NULL, 'Stray')`)

	return NewStore(pool), pool
}

func mustExec(t *testing.T, pool *pgxpool.Pool, q string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), q)
	require.NoError(t, err)
}

func TestStore_UpdateOwnerBranches_Idempotent(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()
	batch := []BranchUpdate{
		{Phone: "+79160000001", BranchID: "b1"},
		{Phone: "+79160000002", BranchID: "b2"},
	}

	n, err := store.UpdateOwnerBranches(ctx, "t1", batch)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = store.UpdateOwnerBranches(ctx, "t1", batch)
	require.NoError(t, err)
	require.Zero(t, n)

	var branch string
	require.NoError(t, pool.QueryRow(ctx, `SELECT branch_id FROM owners WHERE id = 'o1'`).Scan(&branch))
	require.Equal(t, "b1", branch)
}

func TestStore_BackfillLegacyIDs_OnlyEmpty(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()

	n, err := store.BackfillLegacyIDs(ctx, "t1", []LegacyIDUpdate{
		{Phone: "89160000003", LegacyID: "L-3"},
		{Phone: "+79160000002", LegacyID: "L-other"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	var legacy string
	require.NoError(t, pool.QueryRow(ctx, `SELECT legacy_id FROM owners WHERE id = 'o2'`).Scan(&legacy))
	require.Equal(t, "L-2", legacy)
}

func TestStore_PatientLinks(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	missing, err := store.PatientsWithoutPrimary(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(2), missing)

	pending, err := store.UnlinkedPatients(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	n, err := store.InsertPrimaryLinks(ctx, pending)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = store.InsertPrimaryLinks(ctx, pending)
	require.NoError(t, err)
	require.Zero(t, n)

	pending, err = store.UnlinkedPatients(ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, pending)

	missing, err = store.PatientsWithoutPrimary(ctx, "t1")
	require.NoError(t, err)
	require.Zero(t, missing)
}
