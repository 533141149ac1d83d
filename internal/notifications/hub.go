package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PushMessage is the frame pushed over a live connection.
type PushMessage struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type connection struct {
	id   string
	user string
	send chan PushMessage
	conn *websocket.Conn
}

// Hub fans notifications out to a user's live websocket connections.
// Everything is best-effort: a user with no open connection simply reads
// the notification from the inbox later.
type Hub struct {
	mu       sync.RWMutex
	byUser   map[string]map[string]*connection
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		byUser: make(map[string]map[string]*connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe upgrades the request and keeps pumping messages to the client
// until it disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, username string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &connection{
		id:   uuid.New().String(),
		user: username,
		send: make(chan PushMessage, 64),
		conn: ws,
	}

	h.mu.Lock()
	if h.byUser[username] == nil {
		h.byUser[username] = make(map[string]*connection)
	}
	h.byUser[username][c.id] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Push delivers a message to every open connection of the user. Slow or
// full connections are skipped rather than blocked on.
func (h *Hub) Push(username string, msg PushMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.byUser[username] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("dropping push to slow connection",
				zap.String("user", username), zap.String("conn", c.id))
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *connection) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *connection) {
	h.mu.Lock()
	if conns, ok := h.byUser[c.user]; ok {
		delete(conns, c.id)
		if len(conns) == 0 {
			delete(h.byUser, c.user)
		}
	}
	h.mu.Unlock()
	close(c.send)
	c.conn.Close()
}
