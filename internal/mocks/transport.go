package mocks

import (
	"context"
	"sync"
)

// MockTransport is a mock implementation of Transport interface
type MockTransport struct {
	ConnectFunc  func(ctx context.Context) error
	PublishFunc  func(ctx context.Context, deviceID string, payload []byte) error
	CloseFunc    func() error
	Published    map[string][][]byte
	ConnectCalls int
	PublishCalls int
	mu           sync.Mutex
}

func NewMockTransport() *MockTransport {
	return &MockTransport{Published: make(map[string][][]byte)}
}

func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.ConnectCalls++
	m.mu.Unlock()
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return nil
}

func (m *MockTransport) Publish(ctx context.Context, deviceID string, payload []byte) error {
	m.mu.Lock()
	m.PublishCalls++
	m.mu.Unlock()
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, deviceID, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Published[deviceID] = append(m.Published[deviceID], payload)
	m.mu.Unlock()
	return nil
}

func (m *MockTransport) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// PublishedTo returns the payloads published for a device
func (m *MockTransport) PublishedTo(deviceID string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Published[deviceID]
}
