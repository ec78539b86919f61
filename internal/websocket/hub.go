// Package websocket broadcasts live detector alerts to connected status-API
// clients (an operator dashboard watching for scans in real time).
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/pkg/logger"
)

// Event is the envelope pushed to every connected WebSocket client.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Alert     *detector.Alert `json:"alert,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Client represents a connected WebSocket client.
type Client struct {
	ID   string
	Send chan []byte
}

// Hub manages real-time alert broadcasting to connected WebSocket clients.
type Hub struct {
	clients    map[string]*Client
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewHub creates a new WebSocket hub.
func NewHub(log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("websocket hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("ws client connected", "client_id", client.ID, "total", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				close(client.Send)
				delete(h.clients, client.ID)
			}
			h.mu.Unlock()
			h.logger.Info("ws client disconnected", "client_id", client.ID)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}

			h.mu.RLock()
			for id, client := range h.clients {
				select {
				case client.Send <- data:
				default:
					h.logger.Warn("ws client buffer full, dropping", "client_id", id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Emit sends an event to all connected clients. If the broadcast buffer is
// full, the event is dropped and a warning is logged.
func (h *Hub) Emit(event Event) {
	event.Timestamp = time.Now()
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("ws broadcast buffer full, dropping event", "type", event.Type)
	}
}

// EmitAlert publishes a detector alert to every connected client. This is
// the hook the daemon's alert sink calls alongside the alerter's SIEM/email
// transports — it never blocks the alert pipeline since the broadcast send
// and client sends are both non-blocking.
func (h *Hub) EmitAlert(a detector.Alert) {
	h.Emit(Event{Type: "alert", Alert: &a})
}

// Shutdown gracefully stops the hub.
func (h *Hub) Shutdown() {
	h.cancel()
}
