package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/ports"
)

const configKeyPrefix = "device_config:"

// Registry keeps the last delivered configuration of each device in the
// cache. Versions increase by one on every record.
type Registry struct {
	cache ports.Cache
	ttl   time.Duration
	log   *zap.Logger
	mu    sync.Mutex
}

// NewRegistry creates a registry; a ttl of zero keeps entries forever.
func NewRegistry(cache ports.Cache, ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{cache: cache, ttl: ttl, log: log}
}

func (r *Registry) Record(ctx context.Context, deviceID string, cmd domain.DeviceCommand) (*domain.DeviceConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var version int64 = 1
	prev, err := r.Latest(ctx, deviceID)
	switch {
	case err == nil:
		version = prev.Version + 1
	case !errors.Is(err, ports.ErrCacheMiss):
		r.log.Warn("Could not read previous device config", zap.String("device_id", deviceID), zap.Error(err))
	}

	cfg := &domain.DeviceConfig{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		Version:   version,
		Config:    cmd,
		UpdatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("registry: encode config: %w", err)
	}
	if err := r.cache.Set(ctx, configKeyPrefix+deviceID, data, r.ttl); err != nil {
		return nil, fmt.Errorf("registry: store config: %w", err)
	}
	return cfg, nil
}

// Latest returns ports.ErrCacheMiss when nothing was recorded yet.
func (r *Registry) Latest(ctx context.Context, deviceID string) (*domain.DeviceConfig, error) {
	val, err := r.cache.Get(ctx, configKeyPrefix+deviceID)
	if err != nil {
		return nil, err
	}
	var cfg domain.DeviceConfig
	if err := json.Unmarshal([]byte(val), &cfg); err != nil {
		return nil, fmt.Errorf("registry: decode config: %w", err)
	}
	return &cfg, nil
}
