package models

import "time"

// Message is an immutable entry of a conversation's append-only log.
// Ordering is created_at ascending; seq breaks same-timestamp ties in
// insertion order.
type Message struct {
	ID             string    `db:"id" json:"id"`
	Seq            int64     `db:"seq" json:"seq"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RoomEvent is what the hub writes to websocket room members.
type RoomEvent struct {
	Type      string   `json:"type"`
	Message   string   `json:"message,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Payload   *Message `json:"payload,omitempty"`
}

// ClientEvent is what a connected client sends over its websocket.
type ClientEvent struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
	Sender  string `json:"sender,omitempty"`
}

const (
	ClientEventJoinRoom    = "joinRoom"
	ClientEventLeaveRoom   = "leaveRoom"
	ClientEventSendMessage = "sendMessage"

	RoomEventReceiveMessage = "receiveMessage"
)
