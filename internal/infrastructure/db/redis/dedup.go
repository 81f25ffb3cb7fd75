package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupTTL   = 24 * time.Hour
	pendingTTL = 30 * time.Second
	pending    = "pending"
)

// SendDedup implements ports.SendDedup backed by Redis.
// Key format: dedup:send:<sender>:<idempotency_key>
// The value is "pending" while the winner inserts, then the message id.
type SendDedup struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewSendDedup creates a SendDedup wrapping the given Redis client.
func NewSendDedup(client *redis.Client) *SendDedup {
	return &SendDedup{client: client, ttl: dedupTTL, pendingTTL: pendingTTL}
}

// Reserve claims the key with SETNX. A lost claim reads the current value.
func (d *SendDedup) Reserve(ctx context.Context, sender, key string) (int64, bool, error) {
	k := dedupKey(sender, key)
	won, err := d.client.SetNX(ctx, k, pending, d.pendingTTL).Result()
	if err != nil {
		return 0, false, fmt.Errorf("dedup reserve: %w", err)
	}
	if won {
		return 0, true, nil
	}

	raw, err := d.client.Get(ctx, k).Result()
	if err != nil {
		// expired or released between SETNX and GET; the caller retries
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("dedup reserve: %w", err)
	}
	if raw == pending {
		return 0, false, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("dedup reserve: corrupt id %q: %w", raw, err)
	}
	return id, false, nil
}

// Complete overwrites the reservation with the stored message id.
func (d *SendDedup) Complete(ctx context.Context, sender, key string, id int64) error {
	if err := d.client.Set(ctx, dedupKey(sender, key), id, d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup complete: %w", err)
	}
	return nil
}

// Release deletes a reservation so a later retry can insert.
func (d *SendDedup) Release(ctx context.Context, sender, key string) error {
	if err := d.client.Del(ctx, dedupKey(sender, key)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

func dedupKey(sender, key string) string {
	return fmt.Sprintf("dedup:send:%s:%s", sender, key)
}
