package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"authgate/internal/transport/http/response"
)

const MessageTooManyRequests = "Too many requests from this IP, please try again later."

type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int64, err error)
}

// RateLimit budgets requests per client IP. When the limiter itself fails the request
// is let through.
func RateLimit(limiter Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			response.Error(c, http.StatusTooManyRequests, MessageTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
