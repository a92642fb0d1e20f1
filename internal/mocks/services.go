package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/ports"
)

// MockDeviceChannel is a mock implementation of DeviceChannel interface
type MockDeviceChannel struct {
	ConnectFunc  func(ctx context.Context) (ports.Connection, error)
	Conn         *MockConnection
	ConnectCalls int
	mu           sync.Mutex
}

// NewMockDeviceChannel returns a channel whose connections record every
// command sent through them.
func NewMockDeviceChannel() *MockDeviceChannel {
	return &MockDeviceChannel{Conn: &MockConnection{}}
}

func (m *MockDeviceChannel) Connect(ctx context.Context) (ports.Connection, error) {
	m.mu.Lock()
	m.ConnectCalls++
	m.mu.Unlock()

	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return m.Conn, nil
}

// MockConnection is a mock implementation of Connection interface
type MockConnection struct {
	SendFunc func(ctx context.Context, cmd domain.DeviceCommand) error
	Sent     []domain.DeviceCommand
	mu       sync.Mutex
}

func (m *MockConnection) Send(ctx context.Context, cmd domain.DeviceCommand) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, cmd); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Sent = append(m.Sent, cmd)
	m.mu.Unlock()
	return nil
}

// SentCommands returns a copy of the commands delivered so far
func (m *MockConnection) SentCommands() []domain.DeviceCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DeviceCommand, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// MockRenderer is a mock implementation of Renderer interface
type MockRenderer struct {
	RenderFunc func(locale string, key domain.MessageKey, params map[string]interface{}) (string, error)
}

func (m *MockRenderer) Render(locale string, key domain.MessageKey, params map[string]interface{}) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(locale, key, params)
	}
	return string(key), nil
}

// MockConfigRegistry is a mock implementation of ConfigRegistry interface
type MockConfigRegistry struct {
	RecordFunc func(ctx context.Context, deviceID string, cmd domain.DeviceCommand) (*domain.DeviceConfig, error)
	LatestFunc func(ctx context.Context, deviceID string) (*domain.DeviceConfig, error)
}

func (m *MockConfigRegistry) Record(ctx context.Context, deviceID string, cmd domain.DeviceCommand) (*domain.DeviceConfig, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, deviceID, cmd)
	}
	return &domain.DeviceConfig{DeviceID: deviceID, Version: 1, Config: cmd}, nil
}

func (m *MockConfigRegistry) Latest(ctx context.Context, deviceID string) (*domain.DeviceConfig, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, deviceID)
	}
	return nil, ports.ErrCacheMiss
}
