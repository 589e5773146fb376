package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var ErrEmptyContent = errors.New("message content is empty")

// MessageRepository defines interactions with a conversation's message log.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID, senderID, content string) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to a conversation's log.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID, senderID, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyContent
	}
	if conversationID == "" || senderID == "" {
		return models.Message{}, ErrEmptyContent
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, content) VALUES ($1, $2, $3, $4)
        RETURNING id, seq, conversation_id, sender_id, content, created_at`,
		uuid.NewString(), conversationID, senderID, content).StructScan(&msg)
	if isForeignKeyViolation(err) {
		return models.Message{}, ErrConversationNotFound
	}
	return msg, err
}

// ListByConversation returns the full log ascending by creation time, with
// the insertion sequence breaking timestamp ties.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, seq, conversation_id, sender_id, content, created_at
        FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC, seq ASC`, conversationID)
	return msgs, err
}
