package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

// OutboxRepository reads and settles pending follow events.
type OutboxRepository interface {
	ListPending(ctx context.Context, batchSize int) ([]models.FollowEvent, error)
	MarkSent(ctx context.Context, eventID int64) error
	MarkFailed(ctx context.Context, eventID int64) error
}

// OutboxRepo is a sqlx implementation of OutboxRepository.
type OutboxRepo struct {
	db *sqlx.DB
}

// NewOutboxRepo constructs an OutboxRepo.
func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// ListPending returns the oldest undelivered events up to batchSize.
// Failed events are retried until their retry budget runs out.
func (r *OutboxRepo) ListPending(ctx context.Context, batchSize int) ([]models.FollowEvent, error) {
	events := []models.FollowEvent{}
	err := r.db.SelectContext(ctx, &events, `SELECT id, event_type, follower_id, followee_id, payload, status, retry, created_at
        FROM follow_events WHERE status=$1 OR (status=$2 AND retry < $3) ORDER BY id ASC LIMIT $4`,
		models.FollowEventPending, models.FollowEventFailed, maxEventRetries, batchSize)
	return events, err
}

const maxEventRetries = 5

// MarkSent settles a delivered event.
func (r *OutboxRepo) MarkSent(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE follow_events SET status=$2 WHERE id=$1`, eventID, models.FollowEventSent)
	return err
}

// MarkFailed records a failed delivery attempt and bumps the retry counter.
func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE follow_events SET status=$2, retry=retry+1 WHERE id=$1`,
		eventID, models.FollowEventFailed)
	return err
}
