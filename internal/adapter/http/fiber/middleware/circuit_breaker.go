package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/agrovoz/pkg/config"
)

var errServerFailure = errors.New("server error response")

// CircuitBreaker sheds load with 503 once handlers keep failing. Only 5xx
// outcomes count as failures.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	cb := circuitbreaker.New("agrovoz-api", cfg, log)

	return func(c *fiber.Ctx) error {
		var nextErr error
		_, err := cb.Execute(func() (interface{}, error) {
			nextErr = c.Next()
			if nextErr != nil {
				if StatusCode(nextErr) >= fiber.StatusInternalServerError {
					return nil, nextErr
				}
				return nil, nil
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, errServerFailure
			}
			return nil, nil
		})

		if circuitbreaker.IsOpen(err) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}
		return nextErr
	}
}
