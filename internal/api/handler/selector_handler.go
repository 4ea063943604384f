package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// BranchLister lists every branch of a tenant for the settings screen.
type BranchLister interface {
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error)
}

// SelectorHandler serves the tenant and branch pickers.
type SelectorHandler struct {
	selector ports.SelectorService
	branches BranchLister
}

func NewSelectorHandler(selector ports.SelectorService, branches BranchLister) *SelectorHandler {
	return &SelectorHandler{selector: selector, branches: branches}
}

// AvailableBranches lists the branches the caller may switch to.
//
// @Summary      Available branches
// @Tags         selector
// @Produce      json
// @Success      200  {array}   domain.Branch
// @Failure      401  {object}  errorResponse
// @Router       /api/user/available-branches [get]
func (h *SelectorHandler) AvailableBranches(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	list, err := h.selector.AvailableBranches(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(list))
}

// BranchSelector returns the branch picker, read-only with one option.
//
// @Summary      Branch selector
// @Tags         selector
// @Produce      json
// @Success      200  {object}  domain.Selector
// @Failure      401  {object}  errorResponse
// @Router       /api/user/branch-selector [get]
func (h *SelectorHandler) BranchSelector(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	sel, err := h.selector.BranchSelector(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sel)
}

// Tenants lists active clinics.
//
// @Summary      Tenants
// @Tags         selector
// @Produce      json
// @Success      200  {array}   domain.Tenant
// @Failure      403  {object}  errorResponse
// @Router       /api/tenants [get]
func (h *SelectorHandler) Tenants(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	list, err := h.selector.Tenants(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(list))
}

// TenantSelector returns the clinic picker of a super admin.
//
// @Summary      Tenant selector
// @Tags         selector
// @Produce      json
// @Success      200  {object}  domain.Selector
// @Failure      403  {object}  errorResponse
// @Router       /api/tenants/selector [get]
func (h *SelectorHandler) TenantSelector(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	sel, err := h.selector.TenantSelector(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sel)
}

// Branches lists all branches of the current tenant, inactive included.
//
// @Summary      Tenant branches
// @Tags         selector
// @Produce      json
// @Success      200  {array}   domain.Branch
// @Failure      403  {object}  errorResponse
// @Router       /api/branches [get]
func (h *SelectorHandler) Branches(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if sess.TenantID == "" {
		return c.JSON(http.StatusOK, []domain.Branch{})
	}
	list, err := h.branches.ListByTenant(c.Request().Context(), sess.TenantID, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(list))
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
