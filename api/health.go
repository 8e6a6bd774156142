package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog/persistence"
)

// Pinger reports whether a dependency answers
type Pinger func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// Health answers 200 when every pinger succeeds and 503 otherwise
func Health(pingers ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		for _, ping := range pingers {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				return persistence.ErrUnavailable
			}
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}
