package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// JoinRateLimiter caps successful joins per user in a fixed window. A nil Redis
// client disables it, and Redis failures let the request through.
type JoinRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewJoinRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *JoinRateLimiter {
	return &JoinRateLimiter{redis: redisClient, limit: limit, window: window}
}

func joinRateKey(userID string) string {
	return fmt.Sprintf("olos:join:ratelimit:%s", userID)
}

func (l *JoinRateLimiter) Check(ctx context.Context, userID string) error {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return nil
	}

	count, err := l.redis.Get(ctx, joinRateKey(userID)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("[RATELIMIT] Redis unavailable, allowing join for %s: %v", userID, err)
		return nil
	}

	if count >= l.limit {
		return fmt.Errorf("%w: %d joins per %s", ErrRateLimited, l.limit, l.window)
	}
	return nil
}

func (l *JoinRateLimiter) Record(ctx context.Context, userID string) {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return
	}

	key := joinRateKey(userID)
	pipe := l.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RATELIMIT] Failed to record join for %s: %v", userID, err)
	}
}
