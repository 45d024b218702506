package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter keeps one token bucket per provider inside this process.
type LocalLimiter struct {
	mu       sync.Mutex
	perMin   int
	burst    int
	limiters map[string]*rate.Limiter
}

// NewLocalLimiter allows requestsPerMinute per provider with the given burst.
// requestsPerMinute <= 0 disables limiting.
func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		perMin:   requestsPerMinute,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Wait(ctx context.Context, provider string) error {
	if l.perMin <= 0 {
		return ctx.Err()
	}
	if err := l.limiter(provider).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", provider, err)
	}
	return nil
}

func (l *LocalLimiter) limiter(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[provider]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.burst)
		l.limiters[provider] = lim
	}
	return lim
}
