package models

import "time"

// Notification types.
const (
	NotificationFollow    = "follow"
	NotificationLike      = "like"
	NotificationMessage   = "message"
	NotificationAvailable = "available"
)

// Notification is one entry of a recipient's feed. Read only ever moves
// false -> true, and only in bulk.
type Notification struct {
	ID             string    `db:"id" json:"id"`
	Type           string    `db:"type" json:"type"`
	FromID         string    `db:"from_id" json:"from_id"`
	ToID           string    `db:"to_id" json:"to_id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id,omitempty"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FollowEvent is a transactional-outbox row recorded alongside a follow
// graph mutation, relayed to the broker at least once.
type FollowEvent struct {
	ID         int64     `db:"id" json:"id"`
	EventType  string    `db:"event_type" json:"event_type"`
	FollowerID string    `db:"follower_id" json:"follower_id"`
	FolloweeID string    `db:"followee_id" json:"followee_id"`
	Payload    string    `db:"payload" json:"payload"`
	Status     int16     `db:"status" json:"status"`
	Retry      int       `db:"retry" json:"retry"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FollowEvent statuses.
const (
	FollowEventPending int16 = 0
	FollowEventSent    int16 = 1
	FollowEventFailed  int16 = 2
)
