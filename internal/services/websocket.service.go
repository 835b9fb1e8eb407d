package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"` // "panel", "pong", "click", "ping", "error"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Page      string      `json:"page,omitempty"`   // click target page
	Button    string      `json:"button,omitempty"` // click target button id
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID        string
	Conn      *websocket.Conn
	Send      chan WebSocketMessage
	Close     chan bool
	closeOnce sync.Once
}

// NewClientConnection creates a client with a buffered send queue
func NewClientConnection(id string, conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		ID:    id,
		Conn:  conn,
		Send:  make(chan WebSocketMessage, 256),
		Close: make(chan bool),
	}
}

// Shutdown signals the client's pumps to stop. Safe to call more than once.
func (c *ClientConnection) Shutdown() {
	c.closeOnce.Do(func() { close(c.Close) })
}

// Deliver queues msg without blocking. It reports false when the client is
// shut down or its queue is full.
func (c *ClientConnection) Deliver(msg WebSocketMessage) bool {
	select {
	case <-c.Close:
		return false
	default:
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// WebSocketHub fans panel updates out to all connected clients
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
	last       *WebSocketMessage
}

// NewWebSocketHub creates a hub and starts its event loop
func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *WebSocketHub) run() {
	log := logrus.WithField("component", "ws")

	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.Shutdown()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.ID]; exists {
				old.Shutdown()
			}
			h.clients[client.ID] = client
			total := len(h.clients)
			last := h.last
			h.mu.Unlock()
			log.Infof("Client connected: %s (total: %d)", client.ID, total)

			// new clients get the current panel state right away
			if last != nil {
				client.Deliver(*last)
			}

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				client.Shutdown()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Infof("Client disconnected: %s (total: %d)", clientID, total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			if msg.Type == "panel" {
				m := msg
				h.last = &m
			}
			for _, client := range h.clients {
				// a full queue skips this message
				client.Deliver(msg)
			}
			h.mu.Unlock()
		}
	}
}

// PublishPanels broadcasts the rendered pages. It never blocks; when the
// broadcast queue is full the update is dropped.
func (h *WebSocketHub) PublishPanels(pages interface{}) {
	data, err := json.Marshal(pages)
	if err != nil {
		logrus.WithField("component", "ws").Errorf("Error marshaling panels: %v", err)
		return
	}

	msg := WebSocketMessage{
		Type:      "panel",
		Timestamp: time.Now(),
		Data:      json.RawMessage(data),
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(client *ClientConnection) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Shutdown()
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every client and ends the hub loop
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
