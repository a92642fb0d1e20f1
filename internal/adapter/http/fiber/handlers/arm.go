package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/ports"
	"github.com/seu-repo/armvoice/internal/service/command"
)

// ArmResponse mirrors the device's own HTTP control endpoint.
type ArmResponse struct {
	Message string                 `json:"message"`
	State   map[string]interface{} `json:"state"`
}

// ArmHandler drives a joint directly, bypassing the voice agent.
type ArmHandler struct {
	channel ports.DeviceChannel
	log     *zap.Logger
}

func NewArmHandler(channel ports.DeviceChannel, log *zap.Logger) *ArmHandler {
	return &ArmHandler{
		channel: channel,
		log:     log,
	}
}

func armError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ArmResponse{
		Message: "error",
		State:   map[string]interface{}{"message": msg},
	})
}

// Set handles PUT /api/v1/arm/:servo/:value
func (h *ArmHandler) Set(c *fiber.Ctx) error {
	servo := c.Params("servo")
	value, err := strconv.Atoi(c.Params("value"))
	if err != nil {
		return armError(c, fiber.StatusBadRequest, err.Error())
	}
	if value < command.MinAngle || value > command.MaxAngle {
		return armError(c, fiber.StatusBadRequest, "Invalid value. Must be between 0 and 180 degree")
	}

	var cmd domain.DeviceCommand
	if servo == domain.CommandKeyGrip {
		state := domain.GripClose
		if value > 0 {
			state = domain.GripOpen
		}
		cmd = command.BuildGrip(state)
	} else {
		cmd, err = command.BuildSet(domain.Joint(servo), command.Degrees(float64(value)))
		if errors.Is(err, command.ErrUnknownJoint) {
			return armError(c, fiber.StatusNotFound, "Unknown servo "+servo)
		}
		if err != nil {
			return armError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	conn, err := h.channel.Connect(c.UserContext())
	if err != nil {
		h.log.Error("Failed to connect to device", zap.Error(err))
		return armError(c, fiber.StatusServiceUnavailable, "Device unavailable")
	}
	if err := conn.Send(c.UserContext(), cmd); err != nil {
		h.log.Error("Failed to send command", zap.String("servo", servo), zap.Error(err))
		return armError(c, fiber.StatusBadGateway, "Failed to deliver command")
	}

	return c.JSON(ArmResponse{
		Message: "ok",
		State:   map[string]interface{}{"command": cmd},
	})
}
