package queue

import "strings"

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// ConfigSubject is the subject a device listens on for configuration
// updates, e.g. "devices.arm-1.config".
func ConfigSubject(deviceID string) string {
	return "devices." + strings.ReplaceAll(deviceID, ".", "_") + ".config"
}
