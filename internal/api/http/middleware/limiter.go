package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/healthalyze/healthalyze_backend/config"
)

const (
	defaultLimiterMax        = 20
	defaultLimiterExpiration = 30 * time.Second
)

// NewLimiter returns a sliding-window rate limiter. Counters live in Redis when
// a client is given so that every replica shares them; otherwise they are
// kept in process memory.
func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) fiber.Handler {
	lc := limiter.Config{
		Max:               defaultLimiterMax,
		Expiration:        defaultLimiterExpiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}
	if cfg.Max > 0 {
		lc.Max = cfg.Max
	}
	if cfg.ExpirationSeconds > 0 {
		lc.Expiration = time.Duration(cfg.ExpirationSeconds) * time.Second
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
