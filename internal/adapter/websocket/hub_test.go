package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
)

func register(t *testing.T, h *Hub, deviceID string) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan []byte, 4), deviceID: deviceID}
	if !h.join(c) {
		t.Fatal("hub refused client")
	}
	return c
}

func receive(t *testing.T, c *Client) (domain.CommandEvent, bool) {
	t.Helper()
	select {
	case msg := <-c.send:
		var event domain.CommandEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("invalid event JSON: %v", err)
		}
		return event, true
	case <-time.After(100 * time.Millisecond):
		return domain.CommandEvent{}, false
	}
}

func TestHub_BroadcastsToMatchingClients(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	all := register(t, hub, "")
	arm1 := register(t, hub, "arm-1")
	arm2 := register(t, hub, "arm-2")

	// Act
	hub.Publish(domain.CommandEvent{ID: "e1", DeviceID: "arm-1", Command: domain.DeviceCommand{"grip": "open"}})

	// Assert
	if ev, ok := receive(t, all); !ok || ev.ID != "e1" {
		t.Errorf("expected unfiltered client to get e1, got %+v", ev)
	}
	if ev, ok := receive(t, arm1); !ok || ev.Command["grip"] != "open" {
		t.Errorf("expected arm-1 client to get grip open, got %+v", ev)
	}
	if _, ok := receive(t, arm2); ok {
		t.Error("expected arm-2 client to get nothing")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := register(t, hub, "")
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	cancel()
	<-done

	if _, ok := <-c.send; ok {
		t.Error("expected client channel to be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", hub.ClientCount())
	}
}

func TestHub_JoinAndLeaveReturnAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	c := register(t, hub, "")
	cancel()
	<-hub.done

	left := make(chan struct{})
	go func() {
		hub.leave(c)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("leave blocked after hub stopped")
	}

	joined := make(chan bool, 1)
	go func() {
		joined <- hub.join(&Client{hub: hub, send: make(chan []byte, 1)})
	}()
	select {
	case ok := <-joined:
		if ok {
			t.Error("expected join to be refused after hub stopped")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("join blocked after hub stopped")
	}
}
