package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/armvoice/internal/domain"
)

// MockCommandLogRepository is a mock implementation of CommandLogRepository
type MockCommandLogRepository struct {
	SaveFunc         func(ctx context.Context, entry *domain.CommandLog) error
	FindByDeviceFunc func(ctx context.Context, deviceID string, limit int) ([]domain.CommandLog, error)
	Saved            []domain.CommandLog
	mu               sync.Mutex
}

func (m *MockCommandLogRepository) Save(ctx context.Context, entry *domain.CommandLog) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, entry)
	}
	m.mu.Lock()
	m.Saved = append(m.Saved, *entry)
	m.mu.Unlock()
	return nil
}

func (m *MockCommandLogRepository) FindByDevice(ctx context.Context, deviceID string, limit int) ([]domain.CommandLog, error) {
	if m.FindByDeviceFunc != nil {
		return m.FindByDeviceFunc(ctx, deviceID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CommandLog
	for i := len(m.Saved) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.Saved[i].DeviceID == deviceID {
			out = append(out, m.Saved[i])
		}
	}
	return out, nil
}

// SavedEntries returns a copy of the saved audit entries
func (m *MockCommandLogRepository) SavedEntries() []domain.CommandLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CommandLog, len(m.Saved))
	copy(out, m.Saved)
	return out
}
