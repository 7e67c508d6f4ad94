package middleware

import (
	"strconv"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

type Tier struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
}

var (
	TierStrict   = Tier{"strict", 3, 15 * time.Minute, "Too many attempts, please try again after 15 minutes"}
	TierAuth     = Tier{"auth", 10, 15 * time.Minute, "Too many authentication requests, please try again later"}
	TierStandard = Tier{"standard", 100, 15 * time.Minute, "Too many requests, please slow down"}
	TierRead     = Tier{"read", 200, 15 * time.Minute, "Too many requests, please slow down"}
	TierPublic   = Tier{"public", 50, 15 * time.Minute, "Too many requests from this IP, please try again later"}
)

func RateLimit(t Tier) fiber.Handler {
	return RateLimitWith(t, cache.Store)
}

// RateLimitWith is a fixed-window limiter keyed by tier and client IP.
func RateLimitWith(t Tier, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return !config.Bool("RATE_LIMIT_ENABLED", true)
		},
		Max:        t.Max,
		Expiration: t.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "rl:" + t.Name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			retryAfter, err := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter)))
			if err != nil || retryAfter <= 0 {
				retryAfter = int(t.Window.Seconds())
			}
			logger.Module("api").Warn("rate limit exceeded",
				zap.String("tier", t.Name),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
			metrics.RateLimited.WithLabelValues(t.Name).Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"message":     t.Message,
				"retry_after": retryAfter,
			})
		},
		Storage:           storage,
		LimiterMiddleware: limiter.FixedWindow{},
	})
}

// AuthenticatedLimiter applies the read tier to GET requests and the
// standard tier to writes.
func AuthenticatedLimiter() fiber.Handler {
	read := RateLimit(TierRead)
	write := RateLimit(TierStandard)
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return read(c)
		}
		return write(c)
	}
}
