package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
	Kind() string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Name           string
	Version        string
	store          Pinger
	activeSessions func() int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(name, version string, store Pinger, activeSessions func() int) *HealthHandler {
	return &HealthHandler{
		Name:           name,
		Version:        version,
		store:          store,
		activeSessions: activeSessions,
	}
}

// Root is the liveness probe
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":   true,
		"name": h.Name,
	})
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "OK"
	code := fiber.StatusOK
	storeStatus := "not configured"

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		storeStatus = "up"
		if err := h.store.Ping(ctx); err != nil {
			storeStatus = "down"
			status = "DEGRADED"
			code = fiber.StatusServiceUnavailable
		}
	}

	body := fiber.Map{
		"status":  status,
		"service": h.Name,
		"version": h.Version,
		"storage": storeStatus,
	}
	if h.store != nil {
		body["storage_kind"] = h.store.Kind()
	}
	if h.activeSessions != nil {
		body["active_sessions"] = h.activeSessions()
	}
	return c.Status(code).JSON(body)
}
