package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// ClientSource yields legacy clients.
type ClientSource interface {
	Clients(ctx context.Context) ([]LegacyClient, error)
}

// Writer persists migration batches.
type Writer interface {
	UpdateOwnerBranches(ctx context.Context, tenantID string, batch []BranchUpdate) (int64, error)
	BackfillLegacyIDs(ctx context.Context, tenantID string, batch []LegacyIDUpdate) (int64, error)
	UnlinkedPatients(ctx context.Context, tenantID string) ([]PatientLink, error)
	InsertPrimaryLinks(ctx context.Context, batch []PatientLink) (int64, error)
	PatientsWithoutPrimary(ctx context.Context, tenantID string) (int64, error)
}

// BranchLister lists a tenant's branches ordered by name.
type BranchLister interface {
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error)
}

// TenantLister lists active tenants ordered by name.
type TenantLister interface {
	ListActive(ctx context.Context) ([]domain.Tenant, error)
}

// ErrNoTenants is returned when there is no active tenant to migrate into.
var ErrNoTenants = errors.New("no active tenants")

// Report summarises one job run.
type Report struct {
	Planned   int
	Written   int64
	Conflicts []PhoneConflict
}

// Runner executes the migration jobs against one tenant at a time.
type Runner struct {
	legacy    ClientSource
	store     Writer
	branches  BranchLister
	branchMap BranchMap
	batchSize int
	log       zerolog.Logger
}

// NewRunner builds a runner. legacy may be nil for jobs that only touch
// the main database.
func NewRunner(legacy ClientSource, store Writer, branches BranchLister, branchMap BranchMap, log zerolog.Logger) *Runner {
	return &Runner{
		legacy:    legacy,
		store:     store,
		branches:  branches,
		branchMap: branchMap,
		batchSize: BatchSize,
		log:       log,
	}
}

// SelectTenant picks tenantID among the active tenants, or the first
// active tenant by name when tenantID is empty.
func SelectTenant(ctx context.Context, tenants TenantLister, tenantID string) (domain.Tenant, error) {
	list, err := tenants.ListActive(ctx)
	if err != nil {
		return domain.Tenant{}, err
	}
	if len(list) == 0 {
		return domain.Tenant{}, ErrNoTenants
	}
	if tenantID == "" {
		return list[0], nil
	}
	for _, t := range list {
		if t.ID == tenantID {
			return t, nil
		}
	}
	return domain.Tenant{}, fmt.Errorf("tenant %q: %w", tenantID, domain.ErrTenantNotFound)
}

// MigrateOwnerBranches assigns owners to branches using the clinic of the
// matching legacy client.
func (r *Runner) MigrateOwnerBranches(ctx context.Context, tenantID string) (Report, error) {
	clients, err := r.clients(ctx)
	if err != nil {
		return Report{}, err
	}
	branches, err := r.branches.ListByTenant(ctx, tenantID, false)
	if err != nil {
		return Report{}, fmt.Errorf("list branches: %w", err)
	}
	clinicBranches := r.branchMap.Resolve(branches)
	r.log.Info().Int("mapped", len(clinicBranches)).Int("configured", len(r.branchMap)).Msg("branch map resolved")
	if len(clinicBranches) == 0 {
		r.log.Warn().Str("tenant_id", tenantID).Msg("no branch matches the branch map, nothing to update")
	}

	plan := PlanBranchUpdates(clients, clinicBranches)
	rep := Report{Planned: len(plan)}
	for i, batch := range batches(plan, r.batchSize) {
		n, err := r.store.UpdateOwnerBranches(ctx, tenantID, batch)
		if err != nil {
			return rep, fmt.Errorf("batch %d: %w", i+1, err)
		}
		rep.Written += n
		r.log.Debug().Int("batch", i+1).Int64("updated", n).Msg("branch batch written")
	}
	r.log.Info().Int("planned", rep.Planned).Int64("updated", rep.Written).Msg("owner branches migrated")
	return rep, nil
}

// BackfillLegacyIDs stores the legacy client id on owners matched by
// phone. Ambiguous phones are reported and skipped.
func (r *Runner) BackfillLegacyIDs(ctx context.Context, tenantID string) (Report, error) {
	clients, err := r.clients(ctx)
	if err != nil {
		return Report{}, err
	}

	plan, conflicts := PlanLegacyIDs(clients)
	rep := Report{Planned: len(plan), Conflicts: conflicts}
	for _, c := range conflicts {
		r.log.Warn().Str("phone", c.Phone).Strs("legacy_ids", c.LegacyIDs).Msg("phone shared by several legacy clients, skipped")
	}
	for i, batch := range batches(plan, r.batchSize) {
		n, err := r.store.BackfillLegacyIDs(ctx, tenantID, batch)
		if err != nil {
			return rep, fmt.Errorf("batch %d: %w", i+1, err)
		}
		rep.Written += n
		r.log.Debug().Int("batch", i+1).Int64("updated", n).Msg("legacy id batch written")
	}
	r.log.Info().
		Int("planned", rep.Planned).
		Int64("updated", rep.Written).
		Int("conflicts", len(conflicts)).
		Msg("legacy ids backfilled")
	return rep, nil
}

// LinkPatientOwners copies patients.owner_id into the link table as the
// primary owner. It fails when a patient is still without one afterwards.
func (r *Runner) LinkPatientOwners(ctx context.Context, tenantID string) (Report, error) {
	pending, err := r.store.UnlinkedPatients(ctx, tenantID)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Planned: len(pending)}
	for i, batch := range batches(pending, r.batchSize) {
		n, err := r.store.InsertPrimaryLinks(ctx, batch)
		if err != nil {
			return rep, fmt.Errorf("batch %d: %w", i+1, err)
		}
		rep.Written += n
		r.log.Debug().Int("batch", i+1).Int64("inserted", n).Int("size", len(batch)).Msg("link batch committed")
	}

	missing, err := r.store.PatientsWithoutPrimary(ctx, tenantID)
	if err != nil {
		return rep, err
	}
	if missing > 0 {
		return rep, fmt.Errorf("%d patients still have no primary owner", missing)
	}
	r.log.Info().Int("planned", rep.Planned).Int64("inserted", rep.Written).Msg("patient owners linked")
	return rep, nil
}

func (r *Runner) clients(ctx context.Context) ([]LegacyClient, error) {
	if r.legacy == nil {
		return nil, errors.New("legacy database not configured")
	}
	clients, err := r.legacy.Clients(ctx)
	if err != nil {
		return nil, err
	}
	r.log.Info().Int("clients", len(clients)).Msg("legacy clients loaded")
	return clients, nil
}
