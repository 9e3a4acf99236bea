package middleware

import (
	"bakehub/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// RequestContext attaches the request id set by the requestid middleware
// to the request's logging context.
func RequestContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			ctx = log.WithRequestID(ctx, id)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
