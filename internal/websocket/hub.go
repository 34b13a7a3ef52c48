package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSnapshot    MessageType = "session_snapshot"
	MessageTypeFinished    MessageType = "session_finished"
	MessageTypeSessionGone MessageType = "session_not_found"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType           `json:"type"`
	SessionID string                `json:"sessionId"`
	State     *models.PipelineState `json:"state,omitempty"`
	Message   string                `json:"message,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub fans session snapshots out to the clients watching each session
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	last       map[string]time.Time
	logger     *slog.Logger
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		last:       make(map[string]time.Time),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.logger.Debug("WebSocket client registered", "sessionId", client.sessionID, "total", len(h.clients[client.sessionID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			if h.seen(message) {
				continue
			}
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal websocket message", "error", err)
				continue
			}

			h.mu.Lock()
			clients := h.clients[message.SessionID]
			h.logger.Debug("Broadcasting", "type", message.Type, "sessionId", message.SessionID, "clients", len(clients))
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a client; the caller holds mu
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	h.logger.Debug("WebSocket client unregistered", "sessionId", client.sessionID, "remaining", len(clients))
	if len(clients) == 0 {
		delete(h.clients, client.sessionID)
		delete(h.last, client.sessionID)
	}
}

// seen reports whether a snapshot carries nothing newer than the last one
// broadcast for its session, and records it otherwise
func (h *Hub) seen(message *Message) bool {
	if message.State == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	updated := message.State.UpdatedAt
	if prev, ok := h.last[message.SessionID]; ok && prev.Equal(updated) && message.Type == MessageTypeSnapshot {
		return true
	}
	h.last[message.SessionID] = updated
	return false
}

func (h *Hub) send(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Stop ends Run and closes every client
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastSnapshot pushes a session state to everyone watching it
func (h *Hub) BroadcastSnapshot(state *models.PipelineState) {
	if state == nil {
		return
	}
	msgType := MessageTypeSnapshot
	if state.Outcome == models.OutcomeBookingConfirmed || state.Outcome == models.OutcomeIncomplete {
		msgType = MessageTypeFinished
	}
	h.send(&Message{
		Type:      msgType,
		SessionID: state.SessionID,
		State:     state,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NotifySessionGone tells watchers the session no longer exists
func (h *Hub) NotifySessionGone(sessionID string) {
	h.send(&Message{
		Type:      MessageTypeSessionGone,
		SessionID: sessionID,
		Message:   "Session not found",
		Timestamp: time.Now().UnixMilli(),
	})
}

// GetClientCount returns the number of clients watching a session
func (h *Hub) GetClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
