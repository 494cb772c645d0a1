// Package ratelimiter throttles bulk jobs such as reindexing.
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface limits how often an operation may run.
type RateLimiterInterface interface {
	// Wait blocks until one more operation is allowed or ctx is done.
	Wait(ctx context.Context) error
}

// RateLimiter is a token bucket allowing perSecond operations per second on average.
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter. A non-positive perSecond disables throttling.
// burst below 1 is raised to 1.
func NewRateLimiter(name string, perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst), name: name}
}

// Wait blocks until the bucket has a token.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Second {
		slog.Debug("rate limit hit", "limiter", rl.name, "waited", waited)
	}
	return nil
}
