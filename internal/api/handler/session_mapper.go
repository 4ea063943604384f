package handler

import (
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// --- Service output → Response ---

func toUserResponse(u *domain.User, sess domain.SessionContext) userResponse {
	if u == nil {
		return userResponse{ID: sess.UserID, Username: sess.Username, Role: sess.Role}
	}
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Locale:   u.Locale,
	}
}

func toSessionResponse(guard Navigator, u *domain.User, sess domain.SessionContext, t *domain.Tenant, b *domain.Branch) sessionResponse {
	modules := guard.Modules(sess.Role)
	if modules == nil {
		modules = []domain.Module{}
	}
	return sessionResponse{
		User:       toUserResponse(u, sess),
		Session:    sess,
		Tenant:     t,
		Branch:     b,
		Modules:    modules,
		Navigation: guard.Navigation(sess.Role),
	}
}

func toSwitchResponse(res *ports.SwitchResult) switchResponse {
	return switchResponse{
		Session: res.Session,
		Tenant:  res.Tenant,
		Branch:  res.Branch,
		Changed: res.Changed,
	}
}
