package domain

import "time"

// TenantStatus is the lifecycle state of a clinic organisation.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantInactive  TenantStatus = "inactive"
	TenantSuspended TenantStatus = "suspended"
	TenantCancelled TenantStatus = "cancelled"
)

// Tenant is an independent clinic organisation, the top-level data boundary.
type Tenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	CustomDomain string       `json:"custom_domain,omitempty"`
	Status       TenantStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (t *Tenant) Active() bool { return t != nil && t.Status == TenantActive }

// BranchStatus is the lifecycle state of a physical location.
type BranchStatus string

const (
	BranchActive   BranchStatus = "active"
	BranchInactive BranchStatus = "inactive"
)

// Branch is a physical location that belongs to exactly one tenant.
type Branch struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	Name      string       `json:"name"`
	City      string       `json:"city"`
	Address   string       `json:"address"`
	Phone     string       `json:"phone,omitempty"`
	Status    BranchStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (b *Branch) Active() bool { return b != nil && b.Status == BranchActive }
