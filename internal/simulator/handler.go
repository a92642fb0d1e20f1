package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
)

var ErrUnknownCommand = errors.New("simulator: unknown command key")

// Handler decodes device config payloads and applies them to an Arm.
type Handler struct {
	arm       *Arm
	log       *zap.Logger
	skipFirst bool

	mu   sync.Mutex
	seen bool
}

// NewHandler builds a payload handler. With skipFirst the first payload is
// ignored, which is how the device treats the retained config replayed by
// an MQTT broker on subscribe.
func NewHandler(arm *Arm, skipFirst bool, log *zap.Logger) *Handler {
	return &Handler{
		arm:       arm,
		skipFirst: skipFirst,
		log:       log,
	}
}

// Handle matches the transport subscriber callback.
func (h *Handler) Handle(payload []byte) error {
	h.mu.Lock()
	first := !h.seen
	h.seen = true
	h.mu.Unlock()

	if first && h.skipFirst {
		h.log.Debug("Skipping retained config", zap.ByteString("payload", payload))
		return nil
	}

	var cmd domain.DeviceCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		h.log.Warn("Failed to decode config payload", zap.ByteString("payload", payload), zap.Error(err))
		return fmt.Errorf("decode config: %w", err)
	}

	if err := h.Apply(cmd); err != nil {
		h.log.Warn("Ignoring command", zap.Any("command", cmd), zap.Error(err))
		return err
	}

	pos := h.arm.Position()
	h.log.Info("Arm position",
		zap.String("grip", pos.Grip),
		zap.Int("elbow", pos.Elbow),
		zap.Int("shoulder", pos.Shoulder),
		zap.Int("base", pos.Base),
	)
	return nil
}

// Apply executes every recognized key of cmd. Values that are not integers
// are skipped like the firmware does.
func (h *Handler) Apply(cmd domain.DeviceCommand) error {
	applied := 0
	for key, value := range cmd {
		if key == domain.CommandKeyGrip {
			switch strings.ToLower(value) {
			case string(domain.GripOpen):
				h.arm.OpenGrip()
			case string(domain.GripClose):
				h.arm.CloseGrip()
			default:
				continue
			}
			applied++
			continue
		}

		move := strings.HasPrefix(key, domain.CommandMovePrefix)
		joint := domain.Joint(strings.TrimPrefix(key, domain.CommandMovePrefix))
		if !joint.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownCommand, key)
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		if move {
			h.arm.Move(joint, n)
		} else {
			h.arm.Set(joint, n)
		}
		applied++
	}

	if applied == 0 {
		h.log.Debug("Command had no effect", zap.Any("command", cmd))
	}
	return nil
}
