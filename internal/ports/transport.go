package ports

import "context"

// Transport moves raw device payloads to the broker the arm listens on.
type Transport interface {
	// Connect establishes the broker session if it is not already up.
	Connect(ctx context.Context) error
	Publish(ctx context.Context, deviceID string, payload []byte) error
	Close() error
}

// TransportSubscriber is a Transport that can also consume device payloads,
// which is what the device side (and the simulator) needs.
type TransportSubscriber interface {
	Transport
	Subscribe(deviceID string, handler func(payload []byte) error) error
}
