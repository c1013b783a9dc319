package middleware

import (
	"net/http"

	"github.com/anonto42/board-service/backend/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware throttles requests per authenticated user, falling back to
// the client IP for anonymous callers. Place it after JWTAuthMiddleware.
func RateLimitMiddleware(limiter *ratelimit.KeyedLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if actor, ok := ActorFrom(c); ok {
				key = "user:" + actor.UserID
			}

			if !limiter.Allow(key) {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, slow down")
			}
			return next(c)
		}
	}
}
