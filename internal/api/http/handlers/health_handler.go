package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/persistence"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	database    Pinger
	redis       Pinger
}

// NewHealthHandler returns a new handler instance. redis may be nil when the
// limiter runs in memory.
func NewHealthHandler(serviceName, version string, database, redis Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, database: database, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies. Redis is optional:
// an unreachable Redis is reported but does not fail readiness, since login
// throttling fails open.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.database.Ping(ctx); err != nil {
		depStatus["database"] = err.Error()
		ready = false
	} else {
		depStatus["database"] = "ok"
	}

	switch err := pingOptional(ctx, h.redis); {
	case errors.Is(err, persistence.ErrRedisDisabled):
		depStatus["redis"] = "disabled"
	case err != nil:
		depStatus["redis"] = err.Error()
	default:
		depStatus["redis"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error":   "one or more dependencies unavailable",
		"code":    "DEPENDENCY_UNAVAILABLE",
		"details": depStatus,
	})
}

func pingOptional(ctx context.Context, p Pinger) error {
	if p == nil {
		return persistence.ErrRedisDisabled
	}
	return p.Ping(ctx)
}
