package domain

import "time"

// UserStatus is the account state checked on every request.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// User models an authenticated actor in the system.
type User struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenant_id,omitempty"`
	Username          string     `json:"username"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	Status            UserStatus `json:"status"`
	BranchID          string     `json:"branch_id,omitempty"`
	BranchIDs         []string   `json:"branch_ids,omitempty"`
	PreferredBranchID string     `json:"preferred_branch_id,omitempty"`
	Locale            string     `json:"locale,omitempty"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (u *User) Active() bool { return u != nil && u.Status == UserActive }

// IsSuperAdmin reports whether the user operates across tenants.
func (u *User) IsSuperAdmin() bool { return u != nil && u.Role.IsSuperAdmin() }

// MemberOf reports whether branchID is the user's primary branch or one of
// the explicit memberships. It does not consider role-wide access.
func (u *User) MemberOf(branchID string) bool {
	if u == nil || branchID == "" {
		return false
	}
	if u.BranchID == branchID {
		return true
	}
	for _, id := range u.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}
