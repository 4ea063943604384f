package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var (
	testDB     *pgxpool.Pool
	testDBOnce sync.Once
)

// SetupTestDatabase returns a migrated, emptied database. The test is
// skipped when TEST_POSTGRES_DSN is not set.
func SetupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	testDBOnce.Do(func() {
		require.NoError(t, Migrate(dsn))

		db, err := Connect(context.Background(), Config{DSN: dsn, MaxConns: 4})
		require.NoError(t, err)

		testDB = db
	})
	require.NotNil(t, testDB)

	CleanupDatabase(t, testDB)

	return testDB
}

func CleanupDatabase(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	_, err := db.Exec(context.Background(), `TRUNCATE
		call_logs, integration_credentials, patient_owners, patients, owners,
		user_branches, users, branches, tenants CASCADE`)
	if err != nil {
		t.Logf("Warning: failed to cleanup tables: %v", err)
	}
}

func exec(t *testing.T, db *pgxpool.Pool, q string, args ...any) {
	t.Helper()
	_, err := db.Exec(context.Background(), q, args...)
	require.NoError(t, err)
}

// seedClinic inserts tenant t1 (branches b1 North, b2 South, b3 closed),
// suspended tenant t2 and a doctor with an extra membership.
func seedClinic(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	exec(t, db, `INSERT INTO tenants (id, name, slug, custom_domain, status) VALUES
		('t1', 'Alpha Vet', 'alpha', 'alpha-vet.ru', 'active'),
		('t2', 'Beta Vet', 'beta', NULL, 'suspended')`)
	exec(t, db, `INSERT INTO branches (id, tenant_id, name, status) VALUES
		('b1', 't1', 'North', 'active'),
		('b2', 't1', 'South', 'active'),
		('b3', 't1', 'Closed', 'inactive')`)
	exec(t, db, `INSERT INTO users (id, tenant_id, username, password_hash, role, branch_id) VALUES
		('u1', 't1', 'doc', 'hash', 'doctor', 'b1'),
		('u2', 't1', 'chief', 'hash', 'admin', 'b1')`)
	exec(t, db, `INSERT INTO user_branches (user_id, branch_id) VALUES ('u1', 'b2')`)
}
