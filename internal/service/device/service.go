// Package device implements the channel that delivers arm commands to a
// device over the configured broker transport.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/internal/ports"
)

var (
	ErrNotConnected = errors.New("device: transport not connected")
	ErrEmptyCommand = errors.New("device: command must have exactly one key")
	ErrNoDevice     = errors.New("device: no device id")
)

// Options tunes delivery. Zero values fall back to DefaultOptions.
type Options struct {
	DeviceID string

	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerFailures    uint32
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:         3,
		InitialInterval:    200 * time.Millisecond,
		MaxInterval:        2 * time.Second,
		BreakerMaxRequests: 1,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
		BreakerFailures:    5,
	}
}

// Service is a ports.DeviceChannel backed by a broker transport. Publishes
// are retried with exponential backoff and guarded by a circuit breaker;
// delivered commands are recorded in the config registry and announced to
// listeners.
type Service struct {
	opts      Options
	transport ports.Transport
	registry  ports.ConfigRegistry
	breaker   *gobreaker.CircuitBreaker
	log       *zap.Logger

	mu        sync.RWMutex
	listeners []func(domain.CommandEvent)
}

func NewService(opts Options, transport ports.Transport, registry ports.ConfigRegistry, log *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.MaxRetries == 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = def.MaxInterval
	}
	if opts.BreakerMaxRequests == 0 {
		opts.BreakerMaxRequests = def.BreakerMaxRequests
	}
	if opts.BreakerInterval <= 0 {
		opts.BreakerInterval = def.BreakerInterval
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = def.BreakerTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}

	s := &Service{
		opts:      opts,
		transport: transport,
		registry:  registry,
		log:       log,
	}

	name := "device-transport"
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.BreakerMaxRequests,
		Interval:    opts.BreakerInterval,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Device circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			telemetry.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	telemetry.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return s
}

// OnDelivered registers a listener called after every successful delivery.
func (s *Service) OnDelivered(fn func(domain.CommandEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// BreakerState exposes the current breaker state for health reporting.
func (s *Service) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// Connect establishes the transport session for the default device.
func (s *Service) Connect(ctx context.Context) (ports.Connection, error) {
	return s.ConnectDevice(ctx, s.opts.DeviceID)
}

// ConnectDevice establishes the transport session and returns a connection
// addressing deviceID. Repeated calls reuse the same session.
func (s *Service) ConnectDevice(ctx context.Context, deviceID string) (ports.Connection, error) {
	if deviceID == "" {
		return nil, ErrNoDevice
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.transport.Connect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return &connection{svc: s, deviceID: deviceID}, nil
}

// Channel returns a DeviceChannel bound to deviceID.
func (s *Service) Channel(deviceID string) ports.DeviceChannel {
	return deviceChannel{svc: s, deviceID: deviceID}
}

type deviceChannel struct {
	svc      *Service
	deviceID string
}

func (c deviceChannel) Connect(ctx context.Context) (ports.Connection, error) {
	return c.svc.ConnectDevice(ctx, c.deviceID)
}

type connection struct {
	svc      *Service
	deviceID string
}

func (c *connection) Send(ctx context.Context, cmd domain.DeviceCommand) error {
	return c.svc.deliver(ctx, c.deviceID, cmd)
}

func (s *Service) deliver(ctx context.Context, deviceID string, cmd domain.DeviceCommand) error {
	if len(cmd) != 1 {
		return ErrEmptyCommand
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("device: encode command: %w", err)
	}

	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.transport.Publish(ctx, deviceID, payload)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		if err != nil {
			s.log.Warn("Publish attempt failed",
				zap.String("device_id", deviceID),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.opts.MaxRetries), ctx)); err != nil {
		telemetry.DeviceCommandsTotal.WithLabelValues(cmd.Key(), "failed").Inc()
		return fmt.Errorf("device: publish to %s: %w", deviceID, err)
	}
	telemetry.DeviceSendLatency.Observe(time.Since(start).Seconds())
	telemetry.DeviceCommandsTotal.WithLabelValues(cmd.Key(), "delivered").Inc()

	event := domain.CommandEvent{
		ID:          uuid.New().String(),
		DeviceID:    deviceID,
		Command:     cmd,
		DeliveredAt: time.Now().UTC(),
	}
	if s.registry != nil {
		cfg, err := s.registry.Record(ctx, deviceID, cmd)
		if err != nil {
			s.log.Warn("Failed to record device config", zap.String("device_id", deviceID), zap.Error(err))
		} else {
			event.Version = cfg.Version
		}
	}

	s.log.Info("Command delivered",
		zap.String("device_id", deviceID),
		zap.String("key", cmd.Key()),
		zap.String("value", cmd.Value()),
		zap.Int("attempts", attempts),
	)
	s.notify(event)
	return nil
}

func (s *Service) notify(event domain.CommandEvent) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}
}

func (s *Service) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	b.MaxInterval = s.opts.MaxInterval
	b.MaxElapsedTime = 0
	return b
}
