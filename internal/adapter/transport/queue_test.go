package transport

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/adapter/queue"
	"github.com/seu-repo/armvoice/internal/mocks"
)

func TestQueueTransport_PublishRequiresConnect(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	tr := NewQueueTransport("mock", func() (queue.MessageQueue, error) { return mq, nil }, zap.NewNop())

	err := tr.Publish(context.Background(), "arm-1", []byte(`{"grip":"open"}`))

	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestQueueTransport_PublishAndSubscribe(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mq := mocks.NewMockMessageQueue()
	dials := 0
	tr := NewQueueTransport("mock", func() (queue.MessageQueue, error) {
		dials++
		return mq, nil
	}, zap.NewNop())

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("expected reconnect to be a no-op, got %v", err)
	}

	var received [][]byte
	if err := tr.Subscribe("arm-1", func(p []byte) error {
		received = append(received, p)
		return nil
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	err := tr.Publish(ctx, "arm-1", []byte(`{"elbow":"90"}`))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dials != 1 {
		t.Errorf("expected a single dial, got %d", dials)
	}
	if got := mq.GetPublishedMessages("devices.arm-1.config"); len(got) != 1 {
		t.Errorf("expected 1 message on device subject, got %d", len(got))
	}
	if len(received) != 1 || string(received[0]) != `{"elbow":"90"}` {
		t.Errorf("unexpected received payloads %q", received)
	}
}

func TestQueueTransport_DialFailure(t *testing.T) {
	tr := NewQueueTransport("mock", func() (queue.MessageQueue, error) {
		return nil, errors.New("connection refused")
	}, zap.NewNop())

	if err := tr.Connect(context.Background()); err == nil {
		t.Error("expected dial error")
	}
}

func TestQueueTransport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := NewQueueTransport("mock", func() (queue.MessageQueue, error) {
		t.Error("dial should not run for a canceled context")
		return nil, nil
	}, zap.NewNop())

	if err := tr.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConfigSubject(t *testing.T) {
	if got := queue.ConfigSubject("lab.arm"); got != "devices.lab_arm.config" {
		t.Errorf("expected dots to be escaped, got %s", got)
	}
}
