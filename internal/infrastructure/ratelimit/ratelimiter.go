// Package ratelimit throttles request bursts per caller. It sits in front of
// quota enforcement and never touches usage counters.
package ratelimit

import (
	"context"
	"time"
)

// Limits are the maximum requests per window. Zero disables a window.
type Limits struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limits Limits) (bool, error)
	Count(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
