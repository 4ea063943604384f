package domain

import (
	"errors"
	"testing"
)

func branchFixtures() []Branch {
	return []Branch{
		{ID: "b-north", TenantID: "t-a", Name: "North", Status: BranchActive},
		{ID: "b-closed", TenantID: "t-a", Name: "Closed", Status: BranchInactive},
		{ID: "b-centre", TenantID: "t-a", Name: "Centre", Status: BranchActive},
		{ID: "b-foreign", TenantID: "t-b", Name: "Foreign", Status: BranchActive},
	}
}

func TestCheckBranch(t *testing.T) {
	branches := branchFixtures()
	doctor := &User{ID: "u1", TenantID: "t-a", Role: RoleDoctor, BranchID: "b-north"}
	director := &User{ID: "u2", TenantID: "t-a", Role: RoleDirector}

	cases := []struct {
		name   string
		user   *User
		branch *Branch
		want   error
	}{
		{"own branch", doctor, &branches[0], nil},
		{"other branch", doctor, &branches[2], ErrForbidden},
		{"foreign tenant", doctor, &branches[3], ErrBranchNotInTenant},
		{"inactive", director, &branches[1], ErrBranchInactive},
		{"director any active", director, &branches[2], nil},
		{"director foreign tenant", director, &branches[3], ErrBranchNotInTenant},
		{"missing", doctor, nil, ErrBranchNotFound},
	}
	for _, tc := range cases {
		err := CheckBranch(tc.user, tc.branch, "t-a")
		if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCheckBranch_ExtraMembership(t *testing.T) {
	branches := branchFixtures()
	u := &User{ID: "u1", TenantID: "t-a", Role: RoleManager, BranchID: "b-north", BranchIDs: []string{"b-centre"}}
	if err := CheckBranch(u, &branches[2], "t-a"); err != nil {
		t.Fatalf("membership should grant access: %v", err)
	}
}

func TestAccessibleBranches_SortedAndScoped(t *testing.T) {
	director := &User{ID: "u2", TenantID: "t-a", Role: RoleDirector}
	got := AccessibleBranches(director, branchFixtures(), "t-a")
	if len(got) != 2 || got[0].ID != "b-centre" || got[1].ID != "b-north" {
		t.Fatalf("unexpected branches: %+v", got)
	}
}

func TestAccessibleBranches_SuperAdminSeesOnlyCurrentTenant(t *testing.T) {
	admin := &User{ID: "root", Role: RoleSuperAdmin}
	got := AccessibleBranches(admin, branchFixtures(), "t-b")
	if len(got) != 1 || got[0].ID != "b-foreign" {
		t.Fatalf("unexpected branches: %+v", got)
	}
}

func TestDefaultBranch(t *testing.T) {
	accessible := []Branch{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := DefaultBranch(accessible, "c", "b"); got != "c" {
		t.Fatalf("requested branch should win, got %s", got)
	}
	if got := DefaultBranch(accessible, "zzz", "b"); got != "b" {
		t.Fatalf("preference should apply when request is unusable, got %s", got)
	}
	if got := DefaultBranch(accessible, "", ""); got != "a" {
		t.Fatalf("first branch expected, got %s", got)
	}
	if got := DefaultBranch(nil, "a", "b"); got != "" {
		t.Fatalf("no branch expected, got %s", got)
	}
}

func TestSessionContext_WithBranchDoesNotMutate(t *testing.T) {
	s := SessionContext{UserID: "u", Role: RoleDoctor, TenantID: "t-a", BranchID: "b1"}
	next := s.WithBranch("b2")
	if s.BranchID != "b1" || next.BranchID != "b2" {
		t.Fatalf("unexpected contexts: %+v %+v", s, next)
	}
}
