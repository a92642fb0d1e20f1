package domain

// IntentName is the display name the NLU agent assigns to a matched intent.
type IntentName string

const (
	IntentWelcome   IntentName = "Default Welcome Intent"
	IntentArmMove   IntentName = "arm.move"
	IntentArmSet    IntentName = "arm.set"
	IntentGripOpen  IntentName = "grip.open"
	IntentGripClose IntentName = "grip.close"
)

// Slot names extracted by the NLU agent.
const (
	SlotDirection = "direction"
	SlotAngle     = "angle"
	SlotServo     = "servo"
)

// Intent is one recognized user utterance. It is produced once per turn and
// handled exactly once.
type Intent struct {
	Name      IntentName             `json:"name"`
	Slots     map[string]interface{} `json:"slots,omitempty"`
	Locale    string                 `json:"locale,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Query     string                 `json:"query,omitempty"`
}

// Slot returns the raw slot value and whether it was present at all.
func (i Intent) Slot(name string) (interface{}, bool) {
	if i.Slots == nil {
		return nil, false
	}
	v, ok := i.Slots[name]
	return v, ok
}

// StringSlot returns the slot as a string, or "" when absent or not a string.
func (i Intent) StringSlot(name string) string {
	v, ok := i.Slot(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
