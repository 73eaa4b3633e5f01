package ratelimit

import (
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Limiter *Limiter
	// KeyGenerator derives the credential key for the request. An empty key
	// skips limiting; the auth middlewares reject such requests anyway.
	KeyGenerator func(*fiber.Ctx) string
}

// New returns a middleware that rejects over-limit requests with 429 before
// they reach any store write or expensive read. Requests beyond the
// threshold are rejected, never queued.
func New(config Config) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key := config.KeyGenerator(ctx)
		if key == "" {
			return ctx.Next()
		}
		ok, err := config.Limiter.Allow(ctx.Context(), key)
		if err != nil {
			return err
		}
		if !ok {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Rate limit exceeded",
			})
		}
		return ctx.Next()
	}
}
