package domain

import "sort"

// SessionContext is the current tenant/branch selection of an authenticated
// identity. It is a value: switches return a new context and never mutate
// the one they were given.
type SessionContext struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
}

// Authenticated reports whether the context carries an identity.
func (s SessionContext) Authenticated() bool {
	return s.UserID != "" && s.Role != RoleUnknown
}

// WithTenant returns a copy scoped to tenantID with branchID selected.
func (s SessionContext) WithTenant(tenantID, branchID string) SessionContext {
	s.TenantID = tenantID
	s.BranchID = branchID
	return s
}

// WithBranch returns a copy with branchID selected.
func (s SessionContext) WithBranch(branchID string) SessionContext {
	s.BranchID = branchID
	return s
}

// CheckBranch decides whether user may select branch while scoped to
// tenantID. Tenant membership is checked first so that a foreign branch is
// never reported as merely inactive.
func CheckBranch(u *User, b *Branch, tenantID string) error {
	if b == nil {
		return ErrBranchNotFound
	}
	if b.TenantID != tenantID {
		return ErrBranchNotInTenant
	}
	if !b.Active() {
		return ErrBranchInactive
	}
	if u == nil {
		return ErrForbidden
	}
	if u.Role.SeesAllBranches() {
		return nil
	}
	if u.TenantID != tenantID || !u.MemberOf(b.ID) {
		return ErrForbidden
	}
	return nil
}

// AccessibleBranches filters branches down to the ones user may select
// inside tenantID, sorted by name.
func AccessibleBranches(u *User, branches []Branch, tenantID string) []Branch {
	out := make([]Branch, 0, len(branches))
	for i := range branches {
		if CheckBranch(u, &branches[i], tenantID) == nil {
			out = append(out, branches[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultBranch picks the branch a new session starts on: the requested one
// when usable, then the stored preference, then the first accessible branch.
// It returns "" when nothing is accessible.
func DefaultBranch(accessible []Branch, requested, preferred string) string {
	for _, want := range []string{requested, preferred} {
		if want == "" {
			continue
		}
		for _, b := range accessible {
			if b.ID == want {
				return b.ID
			}
		}
	}
	if len(accessible) > 0 {
		return accessible[0].ID
	}
	return ""
}
