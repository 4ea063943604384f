package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

const (
	preferenceTTL = 30 * 24 * time.Hour
	branchListTTL = 10 * time.Minute
	scanBatch     = 100
)

// SessionCache keeps per-user scope data.
// Key format: session:<user_id>:pref:<tenant_id> and session:<user_id>:branches:<tenant_id>
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) PreferredBranch(ctx context.Context, userID, tenantID string) (string, error) {
	v, err := c.client.Get(ctx, preferenceKey(userID, tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get preferred branch: %w", err)
	}
	return v, nil
}

func (c *SessionCache) SetPreferredBranch(ctx context.Context, userID, tenantID, branchID string) error {
	if err := c.client.Set(ctx, preferenceKey(userID, tenantID), branchID, preferenceTTL).Err(); err != nil {
		return fmt.Errorf("set preferred branch: %w", err)
	}
	return nil
}

func (c *SessionCache) AvailableBranches(ctx context.Context, userID, tenantID string) ([]domain.Branch, bool, error) {
	raw, err := c.client.Get(ctx, branchListKey(userID, tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get branch list: %w", err)
	}
	var list []domain.Branch
	if err := json.Unmarshal(raw, &list); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, branchListKey(userID, tenantID)).Err()
		return nil, false, nil
	}
	return list, true, nil
}

func (c *SessionCache) SetAvailableBranches(ctx context.Context, userID, tenantID string, branches []domain.Branch) error {
	if branches == nil {
		branches = []domain.Branch{}
	}
	raw, err := json.Marshal(branches)
	if err != nil {
		return fmt.Errorf("encode branch list: %w", err)
	}
	if err := c.client.Set(ctx, branchListKey(userID, tenantID), raw, branchListTTL).Err(); err != nil {
		return fmt.Errorf("set branch list: %w", err)
	}
	return nil
}

// Invalidate deletes every session:<user_id>:* key.
func (c *SessionCache) Invalidate(ctx context.Context, userID string) error {
	var cursor uint64
	pattern := userPrefix(userID) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan session keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete session keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func userPrefix(userID string) string { return "session:" + userID + ":" }

func preferenceKey(userID, tenantID string) string {
	return userPrefix(userID) + "pref:" + tenantID
}

func branchListKey(userID, tenantID string) string {
	return userPrefix(userID) + "branches:" + tenantID
}
