package ports

import "context"

// Process-wide request budget per external provider.
type RateLimiter interface {
	// Wait blocks until a request slot for provider is available or ctx ends.
	Wait(ctx context.Context, provider string) error
}
