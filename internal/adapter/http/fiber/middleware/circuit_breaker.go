package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/pkg/config"
)

// CircuitBreaker sheds webhook traffic with 503 while downstream failures
// (5xx responses or handler errors) keep tripping the breaker.
func CircuitBreaker(name string, cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			telemetry.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if handlerErr != nil {
				var fe *fiber.Error
				if errors.As(handlerErr, &fe) && fe.Code < fiber.StatusInternalServerError {
					return nil, nil
				}
				return nil, handlerErr
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, fiber.NewError(c.Response().StatusCode())
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}
