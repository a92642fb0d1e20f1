package command

import (
	"errors"
	"fmt"
)

var (
	ErrAngleOutOfRange  = errors.New("angle must be between 0 and 180 degrees")
	ErrInvalidAngle     = errors.New("angle is not a number")
	ErrInvalidDirection = errors.New("direction must look like <joint>-<sign>")
	ErrUnknownJoint     = errors.New("unknown joint")
)

// ValidationError reports which input was rejected before any command was
// built.
type ValidationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsAngleError reports whether err is a numeric angle constraint violation.
func IsAngleError(err error) bool {
	return errors.Is(err, ErrAngleOutOfRange) || errors.Is(err, ErrInvalidAngle)
}
