package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter shares a fixed-window request budget between every process
// pointed at the same Redis. Redis failures let the request through.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, requestsPerWindow int, window time.Duration, logger *zap.Logger) *RedisLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(requestsPerWindow),
		window: window,
		prefix: "ratelimit",
		logger: logger,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Wait(ctx context.Context, provider string) error {
	if l.limit <= 0 {
		return ctx.Err()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.now()
		windowStart := now.Truncate(l.window)
		key := fmt.Sprintf("%s:%s:%d", l.prefix, provider, windowStart.Unix())

		count, err := l.incr(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("provider", provider),
				zap.Error(err),
			)
			return nil
		}
		if count <= l.limit {
			return nil
		}

		timer := time.NewTimer(windowStart.Add(l.window).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLimiter) incr(ctx context.Context, key string) (int64, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
