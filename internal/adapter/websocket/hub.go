package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/domain"
)

// Hub fans delivered command events out to every connected feed client.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for all clients.
	broadcast chan outbound

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	log *zap.Logger
	mu  sync.RWMutex
}

type outbound struct {
	deviceID string
	data     []byte
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
	// Device the client follows, empty for all devices.
	deviceID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is done. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.deviceID != "" && client.deviceID != message.deviceID {
			continue
		}
		select {
		case client.send <- message.data:
		default:
			// Slow consumer, drop it.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// Publish queues an event for broadcast. It never blocks the caller; events
// are dropped when the hub is saturated.
func (h *Hub) Publish(event domain.CommandEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to encode command event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{deviceID: event.DeviceID, data: data}:
	default:
		h.log.Warn("Command feed saturated, dropping event", zap.String("event_id", event.ID))
	}
}

// ClientCount returns the number of connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers the connection and blocks until the client goes away,
// which is what the fiber websocket handler requires.
func (h *Hub) Serve(conn *websocket.Conn, deviceID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), deviceID: deviceID}
	if !h.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// join hands the client to Run, reporting false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	for {
		// Read loop keeps control frames (ping/pong/close) flowing; the feed is push only.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	// The hub closed the channel.
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
