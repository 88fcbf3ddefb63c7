package calls

import (
	"context"
	"time"

	"callagent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps concurrent live calls per agent using atomic Redis
// counters. Slots self-expire so a crashed process cannot leak capacity
// forever; the TTL should comfortably exceed the longest expected call.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, ttl time.Duration) *RedisLimiter {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func (l *RedisLimiter) key(agentID string) string {
	return "calls:active:" + agentID
}

func (l *RedisLimiter) Acquire(ctx context.Context, agentID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, l.key(agentID), l.limit, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, agentID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, l.key(agentID))
}
