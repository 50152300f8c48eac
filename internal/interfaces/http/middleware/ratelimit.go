package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/infrastructure/ratelimit"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

type rateLimitRecorder interface {
	RecordRateLimited()
}

// RateLimiter throttles requests per authenticated user, or per client IP
// before authentication. It is independent of plan call limits.
type RateLimiter struct {
	limiter  ratelimit.RateLimiter
	limits   ratelimit.Limits
	recorder rateLimitRecorder
	logger   logger.Interface
}

func NewRateLimiter(limiter ratelimit.RateLimiter, limits ratelimit.Limits, recorder rateLimitRecorder, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter:  limiter,
		limits:   limits,
		recorder: recorder,
		logger:   logger,
	}
}

// Limit returns a gin middleware enforcing the configured windows. Requests
// are let through when the limiter backend fails.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := utils.GetUserID(c); ok {
			key = "user:" + userID
		}

		allowed, err := rl.limiter.Allow(context.WithoutCancel(c.Request.Context()), key, rl.limits)
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}

		if !allowed {
			if rl.recorder != nil {
				rl.recorder.RecordRateLimited()
			}
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
