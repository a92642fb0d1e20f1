package command

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultMoveAngle is used when a relative move names no angle.
	DefaultMoveAngle = 30
	// DefaultSetAngle is used when an absolute set names no angle.
	DefaultSetAngle = 20

	MinAngle = 0
	MaxAngle = 180
)

// Angle is an optional angle in degrees. The zero value means "not given",
// so an explicit 0 stays distinguishable from a missing slot.
type Angle struct {
	Degrees float64
	Present bool
}

// Degrees returns an explicit angle.
func Degrees(v float64) Angle {
	return Angle{Degrees: v, Present: true}
}

// Or resolves the angle, substituting def when it was not given.
func (a Angle) Or(def float64) float64 {
	if !a.Present {
		return def
	}
	return a.Degrees
}

func inRange(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= MinAngle && v <= MaxAngle
}

// FormatAngle renders an angle like JavaScript String(number): shortest
// round-trip digits, integers without a fraction, never "-0", and
// exponent notation below 1e-6 ("1e-7", not "1e-07").
func FormatAngle(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.Abs(v) >= 1e-6 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	i := strings.IndexByte(s, 'e')
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s
	}
	return s[:i] + "e" + strconv.Itoa(exp)
}
