package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with the request id set by the
// requestid middleware.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		fields := []interface{}{
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", status,
			"duration", time.Since(start),
			"request_id", c.Locals("requestid"),
		}
		if status >= fiber.StatusInternalServerError {
			log.Errorw("request", fields...)
		} else {
			log.Infow("request", fields...)
		}
		return err
	}
}
