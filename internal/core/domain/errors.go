package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")

	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant is not active")

	ErrBranchNotFound    = errors.New("branch not found")
	ErrBranchInactive    = errors.New("branch is not active")
	ErrBranchNotInTenant = errors.New("branch does not belong to the current tenant")

	ErrOwnerNotFound      = errors.New("owner not found")
	ErrCredentialNotFound = errors.New("integration credential not found")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidCallEvent   = errors.New("invalid call event")
)

// ValidationError reports malformed input field by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
