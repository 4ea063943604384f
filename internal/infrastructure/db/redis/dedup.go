package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

const callDedupTTL = 6 * time.Hour

// CallDedup remembers processed telephony states.
// Key format: calldedup:<external_call_id>:<status>:<seq>
type CallDedup struct {
	client *redis.Client
}

func NewCallDedup(client *redis.Client) *CallDedup {
	return &CallDedup{client: client}
}

// IsDuplicate reports whether this call state was already handled.
func (d *CallDedup) IsDuplicate(ctx context.Context, callID string, status domain.CallStatus, seq int) (bool, error) {
	n, err := d.client.Exists(ctx, callDedupKey(callID, status, seq)).Result()
	if err != nil {
		return false, fmt.Errorf("call dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records the call state as handled until callDedupTTL passes.
func (d *CallDedup) Mark(ctx context.Context, callID string, status domain.CallStatus, seq int) error {
	if err := d.client.Set(ctx, callDedupKey(callID, status, seq), "1", callDedupTTL).Err(); err != nil {
		return fmt.Errorf("call dedup mark: %w", err)
	}
	return nil
}

func callDedupKey(callID string, status domain.CallStatus, seq int) string {
	return fmt.Sprintf("calldedup:%s:%s:%d", callID, status, seq)
}
