package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit enforces a fixed request budget per source IP per window, backed
// by Redis. It bounds load from a misbehaving or replaying caller; it is a
// boundary concern, not a correctness one, so it fails open when Redis is
// unreachable.
func RateLimit(cache *redis.Client, prefix string, budget int, window time.Duration) fiber.Handler {
	if budget <= 0 {
		budget = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		key := "rl:" + prefix + ":" + c.IP()
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, window)
		}
		if cnt > int64(budget) {
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, please try again later")
		}
		return c.Next()
	}
}
