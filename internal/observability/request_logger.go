package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LocalsUsername is the fiber.Locals key under which the authenticated username is kept for logging.
const LocalsUsername = "log_username"

// RequestLogger logs one line per request and records request metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		status := c.Response().StatusCode()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", duration),
		}
		if username, ok := c.Locals(LocalsUsername).(string); ok && username != "" {
			fields = append(fields, zap.String("username", username))
		}
		logger.Info("request", fields...)

		metrics.RecordRequest(c.Route().Path, c.Method(), status, duration)
		return err
	}
}
