package ratelimit

import "context"

// Limiter is the injected rate-limit store. Keys identify the caller
// (client IP, user id); rate is tokens per second, burst the bucket size.
type Limiter interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (bool, error)
}
