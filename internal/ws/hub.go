package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
	"social-service/internal/observability"
)

// Hub owns the ephemeral room membership table. Rooms are keyed by
// conversation id or a canonical pair key; membership lives only in
// process memory and is rebuilt empty on restart.
type Hub struct {
	rooms   map[string]map[*websocket.Conn]bool
	members map[*websocket.Conn]map[string]bool
	info    map[*websocket.Conn]ConnInfo
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*websocket.Conn]bool),
		members: make(map[*websocket.Conn]map[string]bool),
		info:    make(map[*websocket.Conn]ConnInfo),
	}
}

// Register records a new connection before it joins any room.
func (h *Hub) Register(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.members[conn]; !ok {
		h.members[conn] = make(map[string]bool)
	}
	h.info[conn] = info
}

// Join adds the connection to a room. No-op when already a member.
func (h *Hub) Join(roomKey string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomKey]; !ok {
		h.rooms[roomKey] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomKey][conn] = true
	if _, ok := h.members[conn]; !ok {
		h.members[conn] = make(map[string]bool)
	}
	h.members[conn][roomKey] = true
}

// Leave removes the connection from one room. No-op when not a member.
func (h *Hub) Leave(roomKey string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomKey]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	delete(h.members[conn], roomKey)
}

// Disconnect removes the connection from every room it joined. Idempotent.
func (h *Hub) Disconnect(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomKey := range h.members[conn] {
		if conns, ok := h.rooms[roomKey]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.rooms, roomKey)
			}
		}
	}
	delete(h.members, conn)
	delete(h.info, conn)
}

// Broadcast delivers the event to every room member except sender.
// Delivery is best-effort: a failing member is dropped from the hub and
// the remaining members still receive the event.
func (h *Hub) Broadcast(roomKey string, sender *websocket.Conn, event models.RoomEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[roomKey]))
	for conn := range h.rooms[roomKey] {
		if conn != sender {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error room=%s: %v", roomKey, err)
			h.publishWriteError(roomKey, conn, err)
			conn.Close()
			h.Disconnect(conn)
		}
	}
}

// RoomSize reports current membership, for metrics and tests.
func (h *Hub) RoomSize(roomKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey])
}

func (h *Hub) publishWriteError(roomKey string, conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.info[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	observability.IncWSEvent("room", "ws_error")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: map[string]any{
			"ws": map[string]any{
				"room":        roomKey,
				"event":       "ws_error",
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      err.Error(),
			},
			"identity": map[string]any{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, headers)
}
