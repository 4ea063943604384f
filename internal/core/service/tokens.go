package service

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the signed session payload carried in both cookies.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// Session converts the claims into a session context. The role is parsed
// so that tokens minted with legacy literals keep working.
func (c *Claims) Session() domain.SessionContext {
	return domain.SessionContext{
		UserID:   c.Subject,
		Username: c.Username,
		Role:     domain.ParseRole(c.Role),
		TenantID: c.TenantID,
		BranchID: c.BranchID,
	}
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a fresh access/refresh pair for sess.
func (t *TokenIssuer) Issue(sess domain.SessionContext) (ports.TokenPair, error) {
	access, accessExp, err := t.sign(sess, tokenKindAccess, t.accessTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	refresh, refreshExp, err := t.sign(sess, tokenKindRefresh, t.refreshTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Parse verifies token and checks it is of the expected kind. Any failure
// is reported as domain.ErrUnauthenticated.
func (t *TokenIssuer) Parse(token, kind string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthenticated
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

func (t *TokenIssuer) sign(sess domain.SessionContext, kind string, ttl time.Duration) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token id: %w", err)
	}

	now := t.now()
	exp := now.Add(ttl)
	claims := Claims{
		Username: sess.Username,
		Role:     sess.Role.String(),
		TenantID: sess.TenantID,
		BranchID: sess.BranchID,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}
