package domain

// MessageKey identifies the spoken response to render for an outcome.
type MessageKey string

const (
	MessageWelcome    MessageKey = "WELCOME"
	MessageArmMove    MessageKey = "ARM.MOVE"
	MessageArmSet     MessageKey = "ARM.SET"
	MessageGripOpen   MessageKey = "GRIP.OPEN"
	MessageGripClose  MessageKey = "GRIP.CLOSE"
	MessageAngleError MessageKey = "ANGLE_ERROR"
	MessageError      MessageKey = "ERROR"
	MessageFallback   MessageKey = "FALLBACK"
)

// MessageKeys lists every key a locale catalog must define.
var MessageKeys = []MessageKey{
	MessageWelcome,
	MessageArmMove,
	MessageArmSet,
	MessageGripOpen,
	MessageGripClose,
	MessageAngleError,
	MessageError,
	MessageFallback,
}

// Interpolation parameters used by the acknowledgment messages.
const (
	ParamFinalAngle = "finalAngle"
	ParamDegree     = "degree"
	ParamServo      = "servo"
)

// Outcome is the terminal result of handling one intent.
type Outcome struct {
	Key     MessageKey             `json:"key"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Command DeviceCommand          `json:"command,omitempty"`
	Err     error                  `json:"-"`
}

// Delivered reports whether a command reached the device channel.
func (o Outcome) Delivered() bool {
	return o.Command != nil && o.Err == nil
}

// Failed reports whether the outcome is a user-visible error.
func (o Outcome) Failed() bool {
	return o.Key == MessageAngleError || o.Key == MessageError
}
