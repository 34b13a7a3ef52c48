package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cx-tal-miterani/flight-assistant/internal/service"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// DefaultPollInterval is how often a watched session is re-queried
	DefaultPollInterval = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotSource reads the current state of a session
type SnapshotSource interface {
	GetSession(ctx context.Context, sessionID string) (*models.PipelineState, error)
}

// Handler upgrades requests on /api/sessions/{id}/ws and streams the
// session's snapshots until the client leaves or the session ends
type Handler struct {
	hub    *Hub
	source SnapshotSource
	poll   time.Duration
	logger *slog.Logger
}

// NewHandler creates a websocket handler. A non-positive poll interval
// uses DefaultPollInterval.
func NewHandler(hub *Hub, source SnapshotSource, poll time.Duration, logger *slog.Logger) *Handler {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, source: source, poll: poll, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := h.source.GetSession(r.Context(), sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load session", http.StatusBadGateway)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "sessionId", sessionID, "error", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(&Message{
		Type:      MessageTypeSnapshot,
		SessionID: sessionID,
		State:     state,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		conn.Close()
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 16), sessionID: sessionID}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go client.writePump()
	go h.watch(ctx, sessionID, state.UpdatedAt)
	client.readPump()
	cancel()
}

// watch re-queries the session and hands changed snapshots to the hub
func (h *Handler) watch(ctx context.Context, sessionID string, last time.Time) {
	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state, err := h.source.GetSession(ctx, sessionID)
		if errors.Is(err, service.ErrSessionNotFound) {
			h.hub.NotifySessionGone(sessionID)
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				h.logger.Warn("Failed to poll session", "sessionId", sessionID, "error", err)
			}
			continue
		}
		if state.UpdatedAt.Equal(last) {
			continue
		}
		last = state.UpdatedAt
		h.hub.BroadcastSnapshot(state)
	}
}

// readPump drains the connection so control frames are processed, and
// unregisters the client once the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
