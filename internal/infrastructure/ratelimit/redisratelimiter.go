package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blink-inc/blink/internal/shared/constants"
)

// RedisRateLimiter is a sliding-window limiter shared by every instance
// pointing at the same Redis.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	seq    atomic.Uint64
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (l *RedisRateLimiter) WithClock(now func() time.Time) *RedisRateLimiter {
	l.now = now
	return l
}

// Allow records one hit for key and reports whether it is within the limit.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	now := l.now()
	redisKey := l.getKey(key)
	windowStart := now.Add(-l.window).UnixNano()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	return zcard.Val() < int64(l.limit), nil
}

func (l *RedisRateLimiter) getKey(identifier string) string {
	return constants.RedisPrefixRateLimit + identifier
}
