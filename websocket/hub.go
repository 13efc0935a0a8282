package websocket

import (
	"sync"
	"time"

	"beatvault/logger"
	"beatvault/types"

	"go.uber.org/zap"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	BroadcastProgress(progress types.ScanProgress)
	BroadcastScan(msgType string, progress types.ScanProgress, message string)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active scan-progress clients and broadcasts
// messages to them
type hub struct {
	// Registered clients
	clients map[*Client]bool

	// Broadcast channel for sending messages to all clients
	broadcast chan types.ScanMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan types.ScanMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logger.Debug("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastProgress sends a scan progress update to all clients
func (h *hub) BroadcastProgress(progress types.ScanProgress) {
	h.BroadcastScan("progress", progress, "")
}

// BroadcastScan sends a scan message of the given type to all clients
func (h *hub) BroadcastScan(msgType string, progress types.ScanProgress, message string) {
	msg := types.ScanMessage{
		Type:      msgType,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("websocket broadcast channel full, dropping message",
			zap.String("type", msgType))
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
