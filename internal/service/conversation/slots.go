package conversation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/service/command"
)

// AngleSlot reads the angle slot of an intent. A missing slot, a null value
// or an empty string all mean "no angle given".
func AngleSlot(intent domain.Intent) (command.Angle, error) {
	v, ok := intent.Slot(domain.SlotAngle)
	if !ok {
		return command.Angle{}, nil
	}
	return ParseAngle(v)
}

// ParseAngle normalizes the shapes NLU agents use for numeric parameters:
// plain numbers, numeric strings and unit objects such as
// {"amount": 45, "unit": "deg"}.
func ParseAngle(v interface{}) (command.Angle, error) {
	switch n := v.(type) {
	case nil:
		return command.Angle{}, nil
	case float64:
		return command.Degrees(n), nil
	case float32:
		return command.Degrees(float64(n)), nil
	case int:
		return command.Degrees(float64(n)), nil
	case int32:
		return command.Degrees(float64(n)), nil
	case int64:
		return command.Degrees(float64(n)), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return command.Angle{}, invalidAngle(v)
		}
		return command.Degrees(f), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return command.Angle{}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return command.Angle{}, invalidAngle(v)
		}
		return command.Degrees(f), nil
	case map[string]interface{}:
		amount, ok := n["amount"]
		if !ok {
			return command.Angle{}, invalidAngle(v)
		}
		return ParseAngle(amount)
	}
	return command.Angle{}, invalidAngle(v)
}

func invalidAngle(v interface{}) error {
	return &command.ValidationError{Field: "angle", Value: v, Err: command.ErrInvalidAngle}
}
