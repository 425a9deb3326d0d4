package stub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/models"
)

const wsWriteWait = 5 * time.Second

type wsClient struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

type wsHub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newWSHub(log *zap.Logger) *wsHub {
	return &wsHub{
		log:     log,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := parseToken(s.secret, r.URL.Query().Get("token"), s.epoch.Load())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token", "code": "token_not_valid"})
		return
	}
	conn, err := s.ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{userID: claims.UserID, conn: conn, send: make(chan []byte, 16)}
	s.ws.add(c)
	go s.ws.writeLoop(c)
	s.ws.readLoop(c)
}

func (h *wsHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readLoop only notices the peer going away; clients never send.
func (h *wsHub) readLoop(c *wsClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *wsHub) writeLoop(c *wsClient) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			return
		}
	}
}

func (h *wsHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *wsHub) broadcast(u models.AttendanceUpdate, to map[int64]bool) {
	msg, err := json.Marshal(u)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !to[c.userID] {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.log.Warn("ws client too slow, dropping event", zap.Int64("user", c.userID))
		}
	}
}

func (h *wsHub) dropAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}
