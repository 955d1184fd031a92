package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs every request and records its latency.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		// Label values outlive the request; fiber reuses the underlying buffers.
		route := utils.CopyString(c.Route().Path)
		method := utils.CopyString(c.Method())
		status := c.Response().StatusCode()
		metrics.RecordRequest(route, method, status, elapsed)

		logger.Info("request",
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
		return err
	}
}
