package http

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ingeniar/bizgen/pkg/metrics"
)

// Observe records request metrics and logs one line per request.
func Observe(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's error handler pick the status before it is recorded
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		metrics.ObserveHTTPRequest(c.Method(), route, strconv.Itoa(status), elapsed)
		if status >= 500 {
			metrics.IncError("http", strconv.Itoa(status))
		}
		logger.Info("http request",
			"method", c.Method(),
			"route", route,
			"status", status,
			"elapsed", elapsed,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return nil
	}
}
