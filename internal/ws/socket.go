package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/observability"
)

// SocketHandler upgrades client connections and drives their event loops.
type SocketHandler struct {
	hub        *Hub
	signingKey []byte
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, signingKey []byte) *SocketHandler {
	return &SocketHandler{hub: hub, signingKey: signingKey}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, upgrades and registers a live connection. The
// connection then joins rooms and relays messages until it closes; nothing
// on this path is persisted.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	userID, err := middleware.UserFromToken(h.signingKey, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Register(conn, info)

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	h.publishConnEvent(ctx, "ws_connect", info, 0, "")

	go h.readLoop(ctx, conn, info)
}

func (h *SocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Disconnect(conn)
		observability.DecWSActive("room")
		observability.IncWSEvent("room", "ws_disconnect")
		h.publishConnEvent(ctx, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("room", "ws_error")
				h.publishConnEvent(ctx, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason)
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("malformed client event conn=%s: %v", info.ConnID, err)
			continue
		}

		switch event.Type {
		case models.ClientEventJoinRoom:
			if event.RoomID != "" {
				h.hub.Join(event.RoomID, conn)
				observability.IncWSEvent("room", "join_room")
			}
		case models.ClientEventLeaveRoom:
			if event.RoomID != "" {
				h.hub.Leave(event.RoomID, conn)
				observability.IncWSEvent("room", "leave_room")
			}
		case models.ClientEventSendMessage:
			if event.RoomID == "" {
				continue
			}
			h.hub.Broadcast(event.RoomID, conn, models.RoomEvent{
				Type:      models.RoomEventReceiveMessage,
				Message:   event.Message,
				Sender:    event.Sender,
				Timestamp: time.Now().UnixMilli(),
			})
			observability.IncWSEvent("room", "send_message")
		}
	}
}

func (h *SocketHandler) publishConnEvent(ctx context.Context, name string, info ConnInfo, durationMS int64, reason string) {
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]any{
			"ws": map[string]any{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": durationMS,
				"reason":      reason,
			},
			"identity": map[string]any{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, headers)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) {
			return header[len(prefix):]
		}
	}
	return c.Query("token")
}
