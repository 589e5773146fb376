package models

import "time"

// Conversation is a private channel between exactly two users. The pair is
// stored in canonical order (user1_id < user2_id) so at most one row can
// exist per unordered pair. LastMessage and LastUpdatedAt are an advisory
// cache of the newest message, not authoritative.
type Conversation struct {
	ID            string    `db:"id" json:"id"`
	User1ID       string    `db:"user1_id" json:"user1_id"`
	User2ID       string    `db:"user2_id" json:"user2_id"`
	LastMessage   string    `db:"last_message" json:"last_message"`
	LastUpdatedAt time.Time `db:"last_updated_at" json:"last_updated_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
