package middleware

import (
	"go-inventory-ledger/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// RequestContext copies the request id set by the requestid middleware into the
// user context, so services and the GORM logger can tag their lines with it.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
			c.SetUserContext(logger.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(log *zap.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		fields := []zap.Field{
			zap.String("request_id", logger.GetRequestID(c.UserContext())),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		}
		if status >= fiber.StatusInternalServerError {
			log.Warn("Request failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("Request handled", fields...)
		}
		return err
	}
}
