package domain

import "time"

// DeviceConfig is one versioned configuration pushed to a device.
type DeviceConfig struct {
	ID        string        `json:"id"`
	DeviceID  string        `json:"device_id"`
	Version   int64         `json:"version"`
	Config    DeviceCommand `json:"config"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CommandLog is the audit record of a single conversation turn.
type CommandLog struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID   string    `json:"device_id" gorm:"index"`
	SessionID  string    `json:"session_id"`
	Intent     string    `json:"intent"`
	Slots      string    `json:"slots" gorm:"type:text"`
	OutcomeKey string    `json:"outcome_key"`
	Payload    string    `json:"payload" gorm:"type:text"`
	Error      string    `json:"error,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (CommandLog) TableName() string {
	return "command_logs"
}

// CommandEvent is broadcast whenever a command has been delivered to a device.
type CommandEvent struct {
	ID          string        `json:"id"`
	DeviceID    string        `json:"device_id"`
	Command     DeviceCommand `json:"command"`
	Version     int64         `json:"version,omitempty"`
	DeliveredAt time.Time     `json:"delivered_at"`
}
