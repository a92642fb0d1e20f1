package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/ports"
)

type entry struct {
	value   string
	expires time.Time // zero keeps the entry until it is overwritten
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// LocalCache keeps device configs in process memory. NewWithFallback
// switches to it when Redis is unreachable at startup, so versions survive
// only as long as the gateway runs.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	log     *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLocalCache starts a sweeper that evicts expired configs every interval.
func NewLocalCache(sweepInterval time.Duration, log *zap.Logger) ports.Cache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	c := &LocalCache{
		entries: make(map[string]entry),
		log:     log,
		stop:    make(chan struct{}),
	}
	go c.sweepEvery(sweepInterval)

	log.Info("Using in-memory config cache", zap.Duration("sweep_interval", sweepInterval))
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		return "", fmt.Errorf("%w: %s", ports.ErrCacheMiss, key)
	}
	return e.value, nil
}

// Set stores strings and bytes as-is and JSON-encodes anything else.
func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s, err := encode(value)
	if err != nil {
		return err
	}

	e := entry{value: s}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cache: encode value: %w", err)
	}
	return string(data), nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Ping always succeeds; memory is never unreachable.
func (c *LocalCache) Ping() error { return nil }

func (c *LocalCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *LocalCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := c.sweep(now); n > 0 {
				c.log.Debug("Evicted expired configs", zap.Int("count", n))
			}
		case <-c.stop:
			return
		}
	}
}

func (c *LocalCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}
