package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSameUser             = errors.New("conversation requires two distinct users")
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, userA, userB string) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	TouchLastMessage(ctx context.Context, conversationID, summary string) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const selectConversationByPair = `SELECT id, user1_id, user2_id, last_message, last_updated_at, created_at
        FROM conversations WHERE user1_id=$1 AND user2_id=$2`

// GetOrCreateConversation returns the conversation for an unordered user
// pair, creating it lazily. Concurrent callers racing on the same pair hit
// the unique constraint; the loser retries the lookup so both observe the
// winner's row.
func (r *ConversationRepo) GetOrCreateConversation(ctx context.Context, userA, userB string) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, ErrSameUser
	}
	user1, user2 := userA, userB
	if user2 < user1 {
		user1, user2 = user2, user1
	}

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, selectConversationByPair, user1, user2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO conversations (id, user1_id, user2_id) VALUES ($1, $2, $3)
        RETURNING id, user1_id, user2_id, last_message, last_updated_at, created_at`,
		uuid.NewString(), user1, user2).StructScan(&conv)
	if err == nil {
		return conv, nil
	}
	if isUniqueViolation(err) {
		err = r.db.GetContext(ctx, &conv, selectConversationByPair, user1, user2)
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, user1_id, user2_id, last_message, last_updated_at, created_at
        FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// TouchLastMessage refreshes the advisory last-message cache. Callers treat
// failures as non-fatal; the message log stays the source of truth.
func (r *ConversationRepo) TouchLastMessage(ctx context.Context, conversationID, summary string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET last_message=$2, last_updated_at=NOW() WHERE id=$1`,
		conversationID, summary)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
