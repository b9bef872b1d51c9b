package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/logger"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// Limiter records one hit for key and reports whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit enforces limiter per client IP and route. Redis failures let the
// request through.
func RateLimit(limiter Limiter, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP() + ":" + c.FullPath()

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warnw("rate limiter unavailable, allowing request",
				"path", c.Request.URL.Path,
				"error", err,
			)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponseWithError(c, apperrors.NewRateLimitedError("rate limit exceeded, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
