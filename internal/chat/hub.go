package chat

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bazuu/investorconnect/internal/db"
)

var (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = int64(8 << 10)
	sendBuffer     = 256
)

// Client is one websocket connection. A client with an empty room is a
// notification socket.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	userID   int64
	username string
	roomID   string
}

func newClient(conn *websocket.Conn, user *db.User, roomID string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		userID:   user.ID,
		username: user.Username,
		roomID:   roomID,
	}
}

// writePump drains the send buffer to the socket until it is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump calls handle for every text frame until the peer goes away.
func (c *Client) readPump(handle func([]byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(data)
	}
}

// Hub tracks connected clients per room and per user.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Client]struct{}
	users  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		users:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.roomID == "" {
		add(h.users, c.userID, c)
		return
	}
	add(h.rooms, c.roomID, c)
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ok bool
	if c.roomID == "" {
		ok = remove(h.users, c.userID, c)
	} else {
		ok = remove(h.rooms, c.roomID, c)
	}
	if ok {
		close(c.send)
	}
}

func add[K comparable](m map[K]map[*Client]struct{}, k K, c *Client) {
	set, ok := m[k]
	if !ok {
		set = make(map[*Client]struct{})
		m[k] = set
	}
	set[c] = struct{}{}
}

func remove[K comparable](m map[K]map[*Client]struct{}, k K, c *Client) bool {
	set, ok := m[k]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m, k)
	}
	return true
}

// deliver queues msg without blocking. Callers hold h.mu.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("websocket send buffer full, dropping event", "user_id", c.userID, "room_id", c.roomID)
	}
}

func (h *Hub) encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encoding websocket event", "error", err)
		return nil
	}
	return b
}

// BroadcastMessage sends a new message to every client in its room.
func (h *Hub) BroadcastMessage(roomID string, m *db.ChatMessage) {
	own := h.encode(NewMessage(m, true))
	other := h.encode(NewMessage(m, false))
	if own == nil || other == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[roomID] {
		if c.userID == m.SenderID {
			h.deliver(c, own)
		} else {
			h.deliver(c, other)
		}
	}
}

// BroadcastExcept sends ev to every client in the room not owned by userID.
func (h *Hub) BroadcastExcept(roomID string, userID int64, ev any) {
	b := h.encode(ev)
	if b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[roomID] {
		if c.userID != userID {
			h.deliver(c, b)
		}
	}
}

// SendToRoomUser sends ev to the clients userID has open in the room.
func (h *Hub) SendToRoomUser(roomID string, userID int64, ev any) {
	b := h.encode(ev)
	if b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[roomID] {
		if c.userID == userID {
			h.deliver(c, b)
		}
	}
}

// SendToUser sends ev to the notification sockets of userID.
func (h *Hub) SendToUser(userID int64, ev any) {
	b := h.encode(ev)
	if b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.users[userID] {
		h.deliver(c, b)
	}
}

// HasUser reports whether userID has a notification socket open.
func (h *Hub) HasUser(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users[userID]) > 0
}

// RoomClients returns the number of clients connected to a room.
func (h *Hub) RoomClients(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}
