package migration

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/db/postgres"
	"github.com/ssavin/vetsystem-sub004/internal/pkg/config"
	"github.com/ssavin/vetsystem-sub004/pkg/logger"
)

// Job is one migration entry point.
type Job struct {
	Name string
	// NeedsLegacy opens the Vetais database before Run.
	NeedsLegacy bool
	Run         func(ctx context.Context, r *Runner, tenant domain.Tenant) (Report, error)
}

// Main runs job with the command-line arguments after the program name and
// returns the process exit code: 0 on success, 1 on any error.
func Main(job Job, args []string) int {
	cfg, err := config.LoadMigration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: job.Name,
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, job, args, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.MigrationConfig, job Job, args []string, log zerolog.Logger) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: %s [tenant-id]", job.Name)
	}
	var tenantID string
	if len(args) == 1 {
		tenantID = args[0]
	}

	branchMap, err := ParseBranchMap(cfg.BranchMap)
	if err != nil {
		return err
	}

	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
		return err
	}

	tenant, err := SelectTenant(ctx, postgres.NewTenantRepository(pool), tenantID)
	if err != nil {
		return err
	}
	log.Info().Str("tenant_id", tenant.ID).Str("tenant", tenant.Name).Msg("tenant selected")

	var legacy ClientSource
	if job.NeedsLegacy {
		lp, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Vetais.DSN(), MaxConns: 2})
		if err != nil {
			return fmt.Errorf("legacy database: %w", err)
		}
		defer lp.Close()
		legacy = NewLegacySource(lp)
	}

	r := NewRunner(legacy, NewStore(pool), postgres.NewBranchRepository(pool), branchMap, log)
	rep, err := job.Run(ctx, r, tenant)
	if err != nil {
		return err
	}
	log.Info().Int("planned", rep.Planned).Int64("written", rep.Written).Msg("done")
	return nil
}

// OwnerBranchesJob assigns owners to branches from the legacy clinic ids.
var OwnerBranchesJob = Job{
	Name:        "migrate-owner-branches",
	NeedsLegacy: true,
	Run: func(ctx context.Context, r *Runner, t domain.Tenant) (Report, error) {
		return r.MigrateOwnerBranches(ctx, t.ID)
	},
}

// LegacyIDsJob stores legacy client ids on owners.
var LegacyIDsJob = Job{
	Name:        "backfill-legacy-ids",
	NeedsLegacy: true,
	Run: func(ctx context.Context, r *Runner, t domain.Tenant) (Report, error) {
		return r.BackfillLegacyIDs(ctx, t.ID)
	},
}

// PatientOwnersJob fills the patient/owner link table.
var PatientOwnersJob = Job{
	Name: "link-patient-owners",
	Run: func(ctx context.Context, r *Runner, t domain.Tenant) (Report, error) {
		return r.LinkPatientOwners(ctx, t.ID)
	},
}
