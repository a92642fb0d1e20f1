package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/armvoice/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// DeviceChannel hands out connections to the remote arm. Connect may be
// called once per request and is safe to call repeatedly.
type DeviceChannel interface {
	Connect(ctx context.Context) (Connection, error)
}

// Connection delivers a built command over an established channel.
type Connection interface {
	Send(ctx context.Context, cmd domain.DeviceCommand) error
}

// Renderer turns an outcome key into the spoken response text.
type Renderer interface {
	Render(locale string, key domain.MessageKey, params map[string]interface{}) (string, error)
}

// ConfigRegistry keeps the last configuration delivered to each device.
type ConfigRegistry interface {
	Record(ctx context.Context, deviceID string, cmd domain.DeviceCommand) (*domain.DeviceConfig, error)
	Latest(ctx context.Context, deviceID string) (*domain.DeviceConfig, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
