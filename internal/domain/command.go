package domain

import "strings"

// Joint is one of the arm's controllable axes.
type Joint string

const (
	JointElbow    Joint = "elbow"
	JointShoulder Joint = "shoulder"
	JointBase     Joint = "base"
)

// Joints lists every joint in a stable order.
var Joints = []Joint{JointElbow, JointShoulder, JointBase}

func (j Joint) Valid() bool {
	switch j {
	case JointElbow, JointShoulder, JointBase:
		return true
	}
	return false
}

// GripState is the requested state of the gripper.
type GripState string

const (
	GripOpen  GripState = "open"
	GripClose GripState = "close"
)

// Command keys understood by the device.
const (
	CommandKeyGrip    = "grip"
	CommandMovePrefix = "move"
)

// DeviceCommand is the single-key configuration payload delivered to the
// device, e.g. {"moveelbow": "-45"}.
type DeviceCommand map[string]string

// Key returns the command key, or "" for an empty command.
func (c DeviceCommand) Key() string {
	for k := range c {
		return k
	}
	return ""
}

// Value returns the value stored under the command key.
func (c DeviceCommand) Value() string {
	return c[c.Key()]
}

// IsMove reports whether the command is a relative move.
func (c DeviceCommand) IsMove() bool {
	return strings.HasPrefix(c.Key(), CommandMovePrefix)
}
