package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var (
	ErrMissingConversation = errors.New("message notification requires a conversation id")
	ErrInvalidType         = errors.New("unknown notification type")
)

// NotificationRepository owns the per-recipient notification feed.
type NotificationRepository interface {
	Create(ctx context.Context, notificationType, fromID, toID, conversationID string) (models.Notification, error)
	ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var validNotificationTypes = map[string]bool{
	models.NotificationFollow:    true,
	models.NotificationLike:      true,
	models.NotificationMessage:   true,
	models.NotificationAvailable: true,
}

// Create stores a new unread notification. Message notifications must carry
// the conversation id they point at; other types drop the payload.
func (r *NotificationRepo) Create(ctx context.Context, notificationType, fromID, toID, conversationID string) (models.Notification, error) {
	if !validNotificationTypes[notificationType] {
		return models.Notification{}, ErrInvalidType
	}
	if notificationType == models.NotificationMessage && conversationID == "" {
		return models.Notification{}, ErrMissingConversation
	}
	if notificationType != models.NotificationMessage {
		conversationID = ""
	}

	var notification models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (id, type, from_id, to_id, conversation_id) VALUES ($1, $2, $3, $4, $5)
        RETURNING id, type, from_id, to_id, conversation_id, read, created_at`,
		uuid.NewString(), notificationType, fromID, toID, conversationID).StructScan(&notification)
	return notification, err
}

// ListForRecipient returns the feed newest first.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.SelectContext(ctx, &notifications, `SELECT id, type, from_id, to_id, conversation_id, read, created_at
        FROM notifications WHERE to_id=$1 ORDER BY created_at DESC`, userID)
	return notifications, err
}

// UnreadCount counts unread notifications for the recipient.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE to_id=$1 AND read=FALSE`, userID)
	return count, err
}

// MarkAllRead flips every currently-unread notification in one statement.
// Notifications created after the update's snapshot stay unread.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE to_id=$1 AND read=FALSE`, userID)
	return err
}

// DeleteAll clears the recipient's feed.
func (r *NotificationRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE to_id=$1`, userID)
	return err
}
