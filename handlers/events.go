package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mentor-assign-server-go/logging"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from the same host, API clients may not be
	},
}

// EventMessage is what websocket clients receive.
type EventMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub broadcasts assignment events to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	writeMu sync.Mutex // gorilla connections allow one writer at a time
	clients map[*websocket.Conn]struct{}
	logger  logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

// HandleWebSocket handles GET /ws/events
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("ws client connected", "remote", conn.RemoteAddr().String())

	go h.readLoop(conn)
}

// readLoop discards client messages and notices when the client goes away.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.logger.Debug("ws client disconnected")
	}
}

// Publish sends an event to all clients. Clients that fail are dropped.
func (h *Hub) Publish(event string, data interface{}) {
	msg := EventMessage{Event: event, Data: data}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("broadcast error", "event", event, "error", err)
			h.remove(conn)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
	}
}
