package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis serializes concurrent webhook deliveries for the same provider
// reference with a short-lived SetNX lock. This is best-effort only: the
// unique index on orders.provider_reference is the correctness guarantee,
// the lock just keeps parallel retries from racing into the conflict path.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

const lockTTL = 30 * time.Second

// AcquireReferenceLock locks a provider reference for processing. Returns
// false when another delivery for the same reference holds the lock.
func (r *Redis) AcquireReferenceLock(ctx context.Context, reference string) (bool, error) {
	key := "webhook_lock:" + reference
	return r.Client.SetNX(ctx, key, "processing", lockTTL).Result()
}

// ReleaseReferenceLock drops the processing lock. Safe to call when the lock
// already expired.
func (r *Redis) ReleaseReferenceLock(ctx context.Context, reference string) error {
	key := "webhook_lock:" + reference
	_, err := r.Client.Del(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	return err
}
