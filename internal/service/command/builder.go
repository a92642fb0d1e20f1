// Package command translates arm operations into the single-key
// configuration payloads understood by the device. Everything here is pure.
package command

import (
	"strings"

	"github.com/seu-repo/armvoice/internal/domain"
)

// NegativeSign is the only sign token that inverts a relative move.
const NegativeSign = "negative"

// Set is a resolved absolute positioning of one joint.
type Set struct {
	Joint domain.Joint
	Angle float64
}

// Command encodes the set as {<joint>: "<angle>"}.
func (s Set) Command() domain.DeviceCommand {
	return domain.DeviceCommand{string(s.Joint): FormatAngle(s.Angle)}
}

// Move is a resolved relative move. Angle carries the sign.
type Move struct {
	Joint domain.Joint
	Angle float64
}

// Command encodes the move as {move<joint>: "<signed angle>"}.
func (m Move) Command() domain.DeviceCommand {
	return domain.DeviceCommand{domain.CommandMovePrefix + string(m.Joint): FormatAngle(m.Angle)}
}

// PlanSet applies the default angle and validates the request.
func PlanSet(joint domain.Joint, angle Angle) (Set, error) {
	resolved := angle.Or(DefaultSetAngle)
	if !inRange(resolved) {
		return Set{}, &ValidationError{Field: "angle", Value: resolved, Err: ErrAngleOutOfRange}
	}
	if !joint.Valid() {
		return Set{}, &ValidationError{Field: "joint", Value: joint, Err: ErrUnknownJoint}
	}
	return Set{Joint: joint, Angle: resolved}, nil
}

// PlanMove applies the default angle, checks the magnitude and then applies
// the sign from the direction. Unrecognized sign tokens leave the angle
// positive and the joint name is passed through unchecked.
func PlanMove(direction string, angle Angle) (Move, error) {
	resolved := angle.Or(DefaultMoveAngle)
	if !inRange(resolved) {
		return Move{}, &ValidationError{Field: "angle", Value: resolved, Err: ErrAngleOutOfRange}
	}

	joint, sign, err := ParseDirection(direction)
	if err != nil {
		return Move{}, err
	}

	if sign == NegativeSign {
		resolved = -resolved
	}
	return Move{Joint: joint, Angle: resolved}, nil
}

// ParseDirection splits "<joint>-<sign>" into its two parts.
func ParseDirection(direction string) (domain.Joint, string, error) {
	parts := strings.Split(direction, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &ValidationError{Field: "direction", Value: direction, Err: ErrInvalidDirection}
	}
	return domain.Joint(parts[0]), parts[1], nil
}

// BuildSet returns {<joint>: "<angle>"}, defaulting the angle to 20.
func BuildSet(joint domain.Joint, angle Angle) (domain.DeviceCommand, error) {
	s, err := PlanSet(joint, angle)
	if err != nil {
		return nil, err
	}
	return s.Command(), nil
}

// BuildMove returns {move<joint>: "<signed angle>"}, defaulting the angle
// to 30.
func BuildMove(direction string, angle Angle) (domain.DeviceCommand, error) {
	m, err := PlanMove(direction, angle)
	if err != nil {
		return nil, err
	}
	return m.Command(), nil
}

// BuildGrip returns {grip: "<state>"}. It never fails.
func BuildGrip(state domain.GripState) domain.DeviceCommand {
	return domain.DeviceCommand{domain.CommandKeyGrip: string(state)}
}
