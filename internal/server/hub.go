package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans frames out to every connected browser.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *zap.Logger

	frames  atomic.Int64
	dropped atomic.Int64
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[*websocket.Conn]bool), log: log}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Clients is the number of open sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Frames counts binary frames broadcast so far.
func (h *Hub) Frames() int64 { return h.frames.Load() }

// Dropped counts clients removed after a failed write.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

func (h *Hub) BroadcastBinary(b []byte) {
	h.frames.Add(1)
	h.broadcast(websocket.BinaryMessage, b)
}

func (h *Hub) BroadcastText(b []byte) {
	h.broadcast(websocket.TextMessage, b)
}

func (h *Hub) broadcast(kind int, b []byte) {
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(kind, b); err != nil {
			h.log.Debug("dropping websocket client", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
			_ = c.Close()
			h.remove(c)
			h.dropped.Add(1)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	for _, c := range h.snapshot() {
		_ = c.Close()
		h.remove(c)
	}
}

// ServeHTTP upgrades the request and holds the socket until the peer goes
// away. Clients only listen; anything they send is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.add(conn)
	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
