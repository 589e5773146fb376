package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
)

func TestHubJoinAndDisconnect(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}

	hub.Register(conn, ConnInfo{ConnID: "c1", UserID: "alice"})
	hub.Join("room-1", conn)
	hub.Join("room-1", conn)
	if hub.RoomSize("room-1") != 1 {
		t.Fatalf("expected join to be idempotent, got size %d", hub.RoomSize("room-1"))
	}

	hub.Join("room-2", conn)
	hub.Leave("room-2", conn)
	if hub.RoomSize("room-2") != 0 {
		t.Fatalf("expected leave to empty room-2")
	}

	hub.Join("room-2", conn)
	hub.Disconnect(conn)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected disconnect to empty every room")
	}
	if len(hub.members) != 0 || len(hub.info) != 0 {
		t.Fatalf("expected disconnect to drop connection state")
	}

	// disconnecting again must not panic
	hub.Disconnect(conn)
}

func TestHubBroadcastExcludesSender(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Register(conn, ConnInfo{ConnID: r.URL.Query().Get("id")})
		hub.Join("room-1", conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	sender, _, err := websocket.DefaultDialer.Dial(wsURL+"?id=sender", nil)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()

	receiver, _, err := websocket.DefaultDialer.Dial(wsURL+"?id=receiver", nil)
	if err != nil {
		t.Fatalf("dial receiver: %v", err)
	}
	defer receiver.Close()

	deadline := time.Now().Add(time.Second)
	for hub.RoomSize("room-1") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("room never reached 2 members, got %d", hub.RoomSize("room-1"))
		}
		time.Sleep(5 * time.Millisecond)
	}

	var senderConn *websocket.Conn
	hub.mu.RLock()
	for conn, info := range hub.info {
		if info.ConnID == "sender" {
			senderConn = conn
		}
	}
	hub.mu.RUnlock()
	if senderConn == nil {
		t.Fatalf("sender connection not registered")
	}

	hub.Broadcast("room-1", senderConn, models.RoomEvent{
		Type:    models.RoomEventReceiveMessage,
		Message: "hello",
		Sender:  "alice",
	})

	receiver.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := receiver.ReadMessage()
	if err != nil {
		t.Fatalf("receiver read: %v", err)
	}
	var event models.RoomEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != models.RoomEventReceiveMessage || event.Message != "hello" {
		t.Fatalf("unexpected event: %+v", event)
	}

	sender.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := sender.ReadMessage(); err == nil {
		t.Fatalf("sender should not receive its own broadcast")
	}
}

func TestHubBroadcastDropsDeadMember(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, ConnInfo{ConnID: "dead"})
		hub.Join("room-1", conn)
		conn.Close()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(time.Second)
	for hub.RoomSize("room-1") < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("member never joined")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast("room-1", nil, models.RoomEvent{Type: models.RoomEventReceiveMessage, Message: "x"})

	if hub.RoomSize("room-1") != 0 {
		t.Fatalf("expected dead member to be dropped, size=%d", hub.RoomSize("room-1"))
	}
}
