package bus

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedup backs a Bus's at-least-once dedup ring with a shared Redis
// cache (grounded on YoForex005-Trading-Engine's backend/cache/redis.go
// client-wrapper pattern) so message-id dedup survives an agent process
// restart instead of resetting with it.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDedup connects to addr and returns a Dedup backed by it. ttl
// bounds how long a message ID is remembered per subscriber.
func NewRedisDedup(addr string, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisDedup{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// SeenRecently implements Dedup using SETNX semantics: the key is claimed
// only once within ttl, so the first caller gets false (not seen) and every
// subsequent caller within the window gets true (seen, suppress).
func (r *RedisDedup) SeenRecently(sub, id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := "powercable:bus:dedup:" + sub + ":" + id
	ok, err := r.client.SetNX(ctx, key, 1, r.ttl).Result()
	if err != nil {
		// Redis unavailable: fail open rather than stall delivery behind a
		// dead dependency. The in-memory ring remains the default when
		// Redis is not configured at all.
		return false
	}
	return !ok
}

// Close releases the underlying Redis connection pool.
func (r *RedisDedup) Close() error {
	return r.client.Close()
}
