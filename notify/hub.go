package notify

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is the wire frame pushed to connected staff.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// EventNewOrder is emitted to the computed branch audience when an
// envelope is created; EventUserDisconnect is the presence event
// broadcast when a staff member's last connection leaves.
const (
	EventNewOrder       = "new-order"
	EventUserDisconnect = "user-disconnect"
)

// Hub owns the connection registry: rooms keyed by staff id, each room
// holding that staff member's live connections. Membership mutations and
// emits are serialized through one mutex; delivery is at-most-once and
// best-effort — staff not currently connected simply miss the event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Client]struct{}),
		log:   log,
	}
}

// Register joins an authenticated connection to the staff member's room
// and starts its pumps. The hub owns the connection from here on.
func (h *Hub) Register(conn *websocket.Conn, staffID uint) *Client {
	c := &Client{
		hub:     h,
		conn:    conn,
		staffID: staffID,
		send:    make(chan []byte, sendQueueSize),
	}
	h.mu.Lock()
	if h.rooms[staffID] == nil {
		h.rooms[staffID] = make(map[*Client]struct{})
	}
	h.rooms[staffID][c] = struct{}{}
	h.mu.Unlock()

	h.log.Info("staff connected", zap.Uint("staff_id", staffID))
	go c.writePump()
	go c.readPump()
	return c
}

// leave removes a connection. When it was the staff member's last one,
// the room is dropped and remaining observers get a presence event.
func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.staffID]
	if ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.staffID)
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if ok {
		h.log.Info("staff disconnected", zap.Uint("staff_id", c.staffID))
		h.Broadcast(EventUserDisconnect, map[string]uint{"staffId": c.staffID})
	}
}

// Emit delivers the event to every currently-connected room matching a
// target id. Slow consumers are dropped rather than blocked on.
func (h *Hub) Emit(targetStaffIDs []uint, name string, payload interface{}) {
	frame, err := json.Marshal(Event{Name: name, Payload: payload})
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("event", name), zap.Error(err))
		return
	}

	h.mu.RLock()
	var clients []*Client
	for _, id := range targetStaffIDs {
		for c := range h.rooms[id] {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(frame)
	}
}

// Broadcast sends the event to every connected client.
func (h *Hub) Broadcast(name string, payload interface{}) {
	h.mu.RLock()
	targets := make([]uint, 0, len(h.rooms))
	for id := range h.rooms {
		targets = append(targets, id)
	}
	h.mu.RUnlock()
	h.Emit(targets, name, payload)
}

// Connected returns the staff ids with at least one live connection.
func (h *Hub) Connected() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}
