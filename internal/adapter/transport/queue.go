// Package transport adapts brokers to the device transport port: NATS and
// RabbitMQ through the queue adapters, and MQTT directly.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/adapter/queue"
)

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrTimeout      = errors.New("transport: operation timed out")
)

// Dialer opens a broker session.
type Dialer func() (queue.MessageQueue, error)

// QueueTransport publishes device payloads on the device config subject of
// a message queue. The session is opened lazily by Connect and reused.
type QueueTransport struct {
	name string
	dial Dialer
	log  *zap.Logger

	mu sync.Mutex
	mq queue.MessageQueue
}

func NewQueueTransport(name string, dial Dialer, log *zap.Logger) *QueueTransport {
	return &QueueTransport{name: name, dial: dial, log: log}
}

func (t *QueueTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mq != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	mq, err := t.dial()
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	t.mq = mq
	return nil
}

func (t *QueueTransport) session() (queue.MessageQueue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mq == nil {
		return nil, ErrNotConnected
	}
	return t.mq, nil
}

func (t *QueueTransport) Publish(ctx context.Context, deviceID string, payload []byte) error {
	mq, err := t.session()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return mq.Publish(queue.ConfigSubject(deviceID), payload)
}

func (t *QueueTransport) Subscribe(deviceID string, handler func(payload []byte) error) error {
	mq, err := t.session()
	if err != nil {
		return err
	}
	subject := queue.ConfigSubject(deviceID)
	t.log.Info("Subscribing to device config", zap.String("transport", t.name), zap.String("subject", subject))
	return mq.Subscribe(subject, handler)
}

func (t *QueueTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mq == nil {
		return nil
	}
	err := t.mq.Close()
	t.mq = nil
	return err
}
