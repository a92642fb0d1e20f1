package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/ports"
)

const defaultCommandsLimit = 50

type DeviceHandler struct {
	registry ports.ConfigRegistry
	audit    ports.CommandLogRepository
	log      *zap.Logger
}

// NewDeviceHandler wires the device endpoints. audit may be nil when the
// audit log is disabled.
func NewDeviceHandler(registry ports.ConfigRegistry, audit ports.CommandLogRepository, log *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		registry: registry,
		audit:    audit,
		log:      log,
	}
}

// GetConfig handles GET /api/v1/devices/:id/config
func (h *DeviceHandler) GetConfig(c *fiber.Ctx) error {
	id := c.Params("id")
	cfg, err := h.registry.Latest(c.UserContext(), id)
	if errors.Is(err, ports.ErrCacheMiss) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No config recorded for device"})
	}
	if err != nil {
		h.log.Error("Failed to read device config", zap.String("device_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(cfg)
}

// ListCommands handles GET /api/v1/devices/:id/commands?limit=N
func (h *DeviceHandler) ListCommands(c *fiber.Ctx) error {
	if h.audit == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Audit log disabled"})
	}

	limit := defaultCommandsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	entries, err := h.audit.FindByDevice(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}
