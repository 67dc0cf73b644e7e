package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "minitasks/internal/errors"
	"minitasks/internal/metrics"
)

// Counter counts hits on a key within a fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows at most max requests per client IP per window for scope.
// Counter failures let the request through.
func RateLimit(counter Counter, scope string, max int, window time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if counter == nil || max <= 0 {
			return next
		}
		return func(c echo.Context) error {
			key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.RealIP()

			n, err := counter.Incr(c.Request().Context(), key, window)
			if err != nil {
				log.WarnContext(c.Request().Context(), "rate limiter unavailable", "scope", scope, "error", err)
				c.Response().Header().Set("X-RateLimit-Error", "counter-error")
				return next(c)
			}

			remaining := int64(max) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(max) {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				return apperrors.ToEchoError(apperrors.ErrRateLimited)
			}
			return next(c)
		}
	}
}
