// Package simulator models the arm firmware closely enough to replay the
// commands the gateway delivers, without any servo hardware.
package simulator

import (
	"sync"

	"github.com/seu-repo/armvoice/internal/domain"
)

// Limits is the mechanical range of one servo, in degrees.
type Limits struct {
	Min int
	Max int
}

func (l Limits) clamp(v int) int {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// DefaultLimits follow the MeArm build: the elbow and shoulder are the
// constrained joints and the grip servo travels between 15 and 120.
var DefaultLimits = map[domain.Joint]Limits{
	domain.JointElbow:    {Min: 50, Max: 110},
	domain.JointShoulder: {Min: 60, Max: 140},
	domain.JointBase:     {Min: 0, Max: 180},
}

var GripLimits = Limits{Min: 15, Max: 120}

// Position is a snapshot of the arm.
type Position struct {
	Grip     string `json:"grip"`
	Elbow    int    `json:"elbow"`
	Shoulder int    `json:"shoulder"`
	Base     int    `json:"base"`
}

const (
	GripStateOpen   = "OPEN"
	GripStateClosed = "CLOSED"
)

// Arm is safe for concurrent use.
type Arm struct {
	mu       sync.Mutex
	limits   map[domain.Joint]Limits
	joints   map[domain.Joint]int
	gripOpen bool
	gripPos  int
}

// NewArm returns an arm parked at 90 degrees on every joint with the grip
// closed.
func NewArm(limits map[domain.Joint]Limits) *Arm {
	if limits == nil {
		limits = DefaultLimits
	}
	a := &Arm{
		limits:  limits,
		joints:  make(map[domain.Joint]int, len(domain.Joints)),
		gripPos: GripLimits.Max,
	}
	for _, j := range domain.Joints {
		a.joints[j] = a.limitFor(j).clamp(90)
	}
	return a
}

func (a *Arm) limitFor(j domain.Joint) Limits {
	if l, ok := a.limits[j]; ok {
		return l
	}
	return Limits{Min: 0, Max: 180}
}

// Set moves a joint to an absolute angle and returns the clamped result.
func (a *Arm) Set(j domain.Joint, angle int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.limitFor(j).clamp(angle)
	a.joints[j] = v
	return v
}

// Move shifts a joint by delta degrees and returns the clamped result.
func (a *Arm) Move(j domain.Joint, delta int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.limitFor(j).clamp(a.joints[j] + delta)
	a.joints[j] = v
	return v
}

func (a *Arm) OpenGrip() {
	a.mu.Lock()
	a.gripOpen = true
	a.gripPos = GripLimits.Min
	a.mu.Unlock()
}

func (a *Arm) CloseGrip() {
	a.mu.Lock()
	a.gripOpen = false
	a.gripPos = GripLimits.Max
	a.mu.Unlock()
}

func (a *Arm) Position() Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	grip := GripStateClosed
	if a.gripOpen {
		grip = GripStateOpen
	}
	return Position{
		Grip:     grip,
		Elbow:    a.joints[domain.JointElbow],
		Shoulder: a.joints[domain.JointShoulder],
		Base:     a.joints[domain.JointBase],
	}
}
