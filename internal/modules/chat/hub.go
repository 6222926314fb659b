package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rentmate/internal/domain"
	"rentmate/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// WSEvent is a frame pushed to chat clients.
type WSEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	BookingID int64       `json:"booking_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// BookerKey addresses every socket of a booker account.
func BookerKey(t domain.BookerType, id int64) string {
	return fmt.Sprintf("%s:%d", t, id)
}

// TalentKey addresses the sockets of the mitra that owns talentID.
func TalentKey(talentID int64) string {
	return fmt.Sprintf("talent:%d", talentID)
}

type connection struct {
	keys []string
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps live chat sockets keyed by participant and relays chat events to them.
// One account may hold several sockets and one socket may listen on several keys.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string]map[*connection]struct{})}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range c.keys {
		set, ok := h.connections[k]
		if !ok {
			set = make(map[*connection]struct{})
			h.connections[k] = set
		}
		set[c] = struct{}{}
	}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, k := range c.keys {
		set := h.connections[k]
		if _, ok := set[c]; ok {
			delete(set, c)
			removed = true
		}
		if len(set) == 0 {
			delete(h.connections, k)
		}
	}
	if removed {
		close(c.send)
	}
}

// registered reports whether c is still attached; h.mu must be held.
func (h *Hub) registered(c *connection) bool {
	for _, k := range c.keys {
		if _, ok := h.connections[k][c]; ok {
			return true
		}
	}
	return false
}

// IsOnline reports whether any socket listens on key.
func (h *Hub) IsOnline(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[key]) > 0
}

// OnlineCount returns the number of distinct open sockets.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*connection]struct{})
	for _, set := range h.connections {
		for c := range set {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// Deliver queues ev for every socket listening on one of keys and returns how many got it.
// A socket registered under several of the keys receives the frame once.
func (h *Hub) Deliver(ev *WSEvent, keys ...string) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*connection]struct{})
	delivered := 0
	for _, k := range keys {
		for c := range h.connections[k] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- data:
				delivered++
			default:
				// slow client
			}
		}
	}
	return delivered
}

// Run relays chat events from the bus until ctx is done or the channel closes.
func (h *Hub) Run(ctx context.Context, in <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			if !strings.HasPrefix(string(e.Kind), "chat.") {
				continue
			}
			h.Deliver(&WSEvent{
				Type:      string(e.Kind),
				SessionID: e.SessionID,
				BookingID: e.BookingID,
				Payload:   e.Payload,
			}, BookerKey(e.BookerType, e.BookerID), TalentKey(e.TalentID))
		}
	}
}

// Close drops every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	closed := make(map[*connection]struct{})
	for k, set := range h.connections {
		for c := range set {
			if _, ok := closed[c]; !ok {
				closed[c] = struct{}{}
				close(c.send)
			}
		}
		delete(h.connections, k)
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("chat ws: write failed keys=%v err=%v", c.keys, err)
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
