package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users        map[string]*domain.User
	findErr      error
	preferErr    error
	lastLogin    map[string]time.Time
	preferredSet map[string]string
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{
		users:        make(map[string]*domain.User),
		lastLogin:    make(map[string]time.Time),
		preferredSet: make(map[string]string),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.BranchIDs = append([]string(nil), u.BranchIDs...)
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.lastLogin[id] = at
	return nil
}

func (r *stubUserRepo) SetPreferredBranch(_ context.Context, userID, branchID string) error {
	if r.preferErr != nil {
		return r.preferErr
	}
	r.preferredSet[userID] = branchID
	if u, ok := r.users[userID]; ok {
		u.PreferredBranchID = branchID
	}
	return nil
}

type stubTenantRepo struct {
	tenants map[string]*domain.Tenant
	listErr error
}

func newStubTenantRepo(tenants ...*domain.Tenant) *stubTenantRepo {
	r := &stubTenantRepo{tenants: make(map[string]*domain.Tenant)}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *stubTenantRepo) FindByID(_ context.Context, id string) (*domain.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTenantRepo) FindBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	for _, t := range r.tenants {
		if t.Slug == slug {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (r *stubTenantRepo) FindByDomain(_ context.Context, host string) (*domain.Tenant, error) {
	for _, t := range r.tenants {
		if t.CustomDomain == host {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (r *stubTenantRepo) ListActive(_ context.Context) ([]domain.Tenant, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Tenant
	for _, t := range r.tenants {
		if t.Active() {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type stubBranchRepo struct {
	mu       sync.Mutex
	branches map[string]*domain.Branch
	listed   int
}

func newStubBranchRepo(branches ...*domain.Branch) *stubBranchRepo {
	r := &stubBranchRepo{branches: make(map[string]*domain.Branch)}
	for _, b := range branches {
		r.branches[b.ID] = b
	}
	return r
}

func (r *stubBranchRepo) FindByID(_ context.Context, id string) (*domain.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *stubBranchRepo) ListByTenant(_ context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error) {
	r.mu.Lock()
	r.listed++
	r.mu.Unlock()
	var out []domain.Branch
	for _, b := range r.branches {
		if b.TenantID != tenantID || (activeOnly && !b.Active()) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type stubSessionCache struct {
	preferred   map[string]string
	branches    map[string][]domain.Branch
	invalidated []string
	readErr     error
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{
		preferred: make(map[string]string),
		branches:  make(map[string][]domain.Branch),
	}
}

func (c *stubSessionCache) PreferredBranch(_ context.Context, userID, tenantID string) (string, error) {
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.preferred[userID+"|"+tenantID], nil
}

func (c *stubSessionCache) SetPreferredBranch(_ context.Context, userID, tenantID, branchID string) error {
	c.preferred[userID+"|"+tenantID] = branchID
	return nil
}

func (c *stubSessionCache) AvailableBranches(_ context.Context, userID, tenantID string) ([]domain.Branch, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	list, ok := c.branches[userID+"|"+tenantID]
	return list, ok, nil
}

func (c *stubSessionCache) SetAvailableBranches(_ context.Context, userID, tenantID string, branches []domain.Branch) error {
	c.branches[userID+"|"+tenantID] = branches
	return nil
}

func (c *stubSessionCache) Invalidate(_ context.Context, userID string) error {
	c.invalidated = append(c.invalidated, userID)
	for k := range c.branches {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+"|" {
			delete(c.branches, k)
		}
	}
	for k := range c.preferred {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+"|" {
			delete(c.preferred, k)
		}
	}
	return nil
}

type stubRevocation struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newStubRevocation() *stubRevocation {
	return &stubRevocation{revoked: make(map[string]time.Time)}
}

func (r *stubRevocation) Revoke(_ context.Context, jti string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = until
	return nil
}

func (r *stubRevocation) Claim(_ context.Context, jti string, until time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[jti]; ok {
		return false, nil
	}
	r.revoked[jti] = until
	return true, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (a *stubAudit) Insert(_ context.Context, e domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubAudit) actions() []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubAlerter struct {
	subjects []string
}

func (a *stubAlerter) SecurityAlert(_ context.Context, subject, _ string) {
	a.subjects = append(a.subjects, subject)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const (
	testSecret = "test-secret"
	tenantA    = "tenant-a"
	tenantB    = "tenant-b"
)

func mustHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}

func activeTenant(id, name string) *domain.Tenant {
	return &domain.Tenant{ID: id, Name: name, Slug: id, Status: domain.TenantActive}
}

func branch(id, tenantID, name string, active bool) *domain.Branch {
	status := domain.BranchActive
	if !active {
		status = domain.BranchInactive
	}
	return &domain.Branch{ID: id, TenantID: tenantID, Name: name, Status: status}
}

func user(id string, role domain.Role, tenantID, branchID string, extra ...string) *domain.User {
	return &domain.User{
		ID:           id,
		TenantID:     tenantID,
		Username:     id,
		PasswordHash: mustHash("pass-" + id),
		Role:         role,
		Status:       domain.UserActive,
		BranchID:     branchID,
		BranchIDs:    extra,
	}
}

// clinicFixture is two tenants: A with three branches (one inactive), B
// with one.
type clinicFixture struct {
	users    *stubUserRepo
	tenants  *stubTenantRepo
	branches *stubBranchRepo
	cache    *stubSessionCache
	revoked  *stubRevocation
	audit    *stubAudit
	alerts   *stubAlerter
	tokens   *TokenIssuer
}

func newClinicFixture() *clinicFixture {
	return &clinicFixture{
		users: newStubUserRepo(
			user("doc", domain.RoleDoctor, tenantA, "a-north"),
			user("admin", domain.RoleAdministrator, tenantA, "a-north", "a-south"),
			user("boss", domain.RoleDirector, tenantA, "a-north"),
			user("root", domain.RoleSuperAdmin, "", ""),
		),
		tenants: newStubTenantRepo(
			activeTenant(tenantA, "Alpha Vet"),
			activeTenant(tenantB, "Beta Vet"),
			&domain.Tenant{ID: "tenant-x", Name: "Xeno Vet", Slug: "xeno", Status: domain.TenantSuspended},
		),
		branches: newStubBranchRepo(
			branch("a-north", tenantA, "North", true),
			branch("a-south", tenantA, "South", true),
			branch("a-old", tenantA, "Old Town", false),
			branch("b-main", tenantB, "Main", true),
		),
		cache:   newStubSessionCache(),
		revoked: newStubRevocation(),
		audit:   &stubAudit{},
		alerts:  &stubAlerter{},
		tokens:  NewTokenIssuer(testSecret, time.Minute, time.Hour),
	}
}

func (f *clinicFixture) session(userID string) domain.SessionContext {
	u := f.users.users[userID]
	return domain.SessionContext{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		TenantID: u.TenantID,
		BranchID: u.BranchID,
	}
}
