package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/logger"
	"quicker-admin/ratelimit"
	"quicker-admin/types"
)

// KeyFunc picks the rate limit bucket for a request.
type KeyFunc func(c *fiber.Ctx) string

func ByIP(prefix string) KeyFunc {
	return func(c *fiber.Ctx) string {
		return prefix + c.IP()
	}
}

// RateLimit rejects requests over the limiter's budget with 429. A limiter
// backend failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, retryAfter, err := limiter.Allow(c.UserContext(), key(c), time.Now())
		if err != nil {
			logger.Error("Rate limiter unavailable", err)
			return c.Next()
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ErrorResponse{
				Error:  "Too many requests. Try again later.",
				Status: fiber.StatusTooManyRequests,
			})
		}
		return c.Next()
	}
}
