package handler

import "github.com/ssavin/vetsystem-sub004/internal/core/domain"

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username"  validate:"required,max=100"`
	Password string `json:"password"  validate:"required,max=200"`
	BranchID string `json:"branch_id" validate:"max=64"`
}

type switchBranchRequest struct {
	BranchID string `json:"branch_id" validate:"required,max=64"`
}

type switchTenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required,max=64"`
}

type userResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
	Locale   string      `json:"locale,omitempty"`
}

type sessionResponse struct {
	User       userResponse          `json:"user"`
	Session    domain.SessionContext `json:"session"`
	Tenant     *domain.Tenant        `json:"tenant,omitempty"`
	Branch     *domain.Branch        `json:"branch,omitempty"`
	Modules    []domain.Module       `json:"modules"`
	Navigation []domain.NavItem      `json:"navigation"`
}

type switchResponse struct {
	Session domain.SessionContext `json:"session"`
	Tenant  *domain.Tenant        `json:"tenant,omitempty"`
	Branch  *domain.Branch        `json:"branch,omitempty"`
	Changed bool                  `json:"changed"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}
