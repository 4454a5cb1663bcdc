package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginKeyPrefix = "ratelimit:login:"

type RateLimiter struct {
	redis  redis.Cmdable
	limit  int64
	window time.Duration
}

// NewRateLimiter allows limit login attempts per client IP in each window.
func NewRateLimiter(redisClient redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{redis: redisClient, limit: int64(limit), window: window}
}

// LoginRateLimit throttles login attempts per client IP.
func (r *RateLimiter) LoginRateLimit() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: &redisStore{limiter: r, prefix: loginKeyPrefix},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			zap.L().Warn("login rate limit exceeded", zap.String("ip", identifier))
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many login attempts. Please try again later.",
			})
		},
	})
}

// Allow counts one hit for key and reports whether it is still within the limit.
// Redis failures let the request through.
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		zap.L().Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
		return true
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			zap.L().Warn("rate limit expire failed", zap.String("key", key), zap.Error(err))
		}
	}
	return count <= r.limit
}

// redisStore adapts RateLimiter to echo's limiter store.
type redisStore struct {
	limiter *RateLimiter
	prefix  string
}

func (s *redisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.limiter.Allow(ctx, fmt.Sprintf("%s%s", s.prefix, identifier)), nil
}
