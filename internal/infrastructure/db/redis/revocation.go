package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocation is a deny-list of refresh token ids. Entries expire with
// the token they block.
type TokenRevocation struct {
	client *redis.Client
	now    func() time.Time
}

func NewTokenRevocation(client *redis.Client) *TokenRevocation {
	return &TokenRevocation{client: client, now: time.Now}
}

func (r *TokenRevocation) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Claim sets the deny-list entry only if it is absent, so concurrent
// rotations of one refresh token have a single winner.
func (r *TokenRevocation) Claim(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return false, nil
	}
	ok, err := r.client.SetNX(ctx, revokedKey(jti), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim token: %w", err)
	}
	return ok, nil
}

func revokedKey(jti string) string { return "revoked:" + jti }
