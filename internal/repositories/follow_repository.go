package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrSelfFollow   = errors.New("cannot follow yourself")
	ErrUserNotFound = errors.New("user not found")
)

// FollowRepository owns the follow graph. The graph is a single edge table,
// so the two mirrored views (following of A, followers of B) can never
// disagree; only the denormalized counters on users can drift, and the
// reconciler repairs those.
type FollowRepository interface {
	ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error)
	IsFollowing(ctx context.Context, actorID, targetID string) (bool, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
	ListFollowingIDs(ctx context.Context, userID string) ([]string, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// FollowRepo is a sqlx implementation of FollowRepository.
type FollowRepo struct {
	db *sqlx.DB
}

// NewFollowRepo constructs a FollowRepo.
func NewFollowRepo(db *sqlx.DB) *FollowRepo {
	return &FollowRepo{db: db}
}

// ToggleFollow flips the follow relation from actor to target and returns
// the new state. The edge write, both counter updates and the outbox row
// commit as one transaction. An advisory lock on the unordered pair
// serializes concurrent toggles for that pair without blocking unrelated
// pairs.
func (r *FollowRepo) ToggleFollow(ctx context.Context, actorID, targetID string) (following bool, err error) {
	if actorID == targetID {
		return false, ErrSelfFollow
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pairLockKey(actorID, targetID)); err != nil {
		return false, err
	}

	var known int
	if err = tx.GetContext(ctx, &known, `SELECT COUNT(*) FROM users WHERE id IN ($1, $2)`, actorID, targetID); err != nil {
		return false, err
	}
	if known != 2 {
		err = ErrUserNotFound
		return false, err
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`,
		actorID, targetID); err != nil {
		return false, err
	}

	if exists {
		if _, err = tx.ExecContext(ctx, `DELETE FROM follows WHERE follower_id=$1 AND followee_id=$2`, actorID, targetID); err != nil {
			return false, err
		}
		if err = adjustCounts(ctx, tx, actorID, targetID, -1); err != nil {
			return false, err
		}
		if err = insertFollowEvent(ctx, tx, "unfollow", actorID, targetID); err != nil {
			return false, err
		}
		following = false
	} else {
		if _, err = tx.ExecContext(ctx, `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)`, actorID, targetID); err != nil {
			return false, err
		}
		if err = adjustCounts(ctx, tx, actorID, targetID, +1); err != nil {
			return false, err
		}
		if err = insertFollowEvent(ctx, tx, "follow", actorID, targetID); err != nil {
			return false, err
		}
		following = true
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return following, nil
}

// IsFollowing reports whether the edge actor -> target exists.
func (r *FollowRepo) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`,
		actorID, targetID)
	return exists, err
}

// ListFollowerIDs returns ids of users following userID, newest first.
func (r *FollowRepo) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT follower_id FROM follows WHERE followee_id=$1 ORDER BY created_at DESC`, userID)
	return ids, err
}

// ListFollowingIDs returns ids of users userID follows, newest first.
func (r *FollowRepo) ListFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT followee_id FROM follows WHERE follower_id=$1 ORDER BY created_at DESC`, userID)
	return ids, err
}

// CountFollowers counts edges pointing at userID.
func (r *FollowRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM follows WHERE followee_id=$1`, userID)
	return n, err
}

// CountFollowing counts edges originating at userID.
func (r *FollowRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM follows WHERE follower_id=$1`, userID)
	return n, err
}

func adjustCounts(ctx context.Context, tx *sqlx.Tx, actorID, targetID string, delta int) error {
	if _, err := tx.ExecContext(ctx, `UPDATE users SET following_count = GREATEST(0, following_count + $2) WHERE id=$1`,
		actorID, delta); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET follower_count = GREATEST(0, follower_count + $2) WHERE id=$1`,
		targetID, delta)
	return err
}

func insertFollowEvent(ctx context.Context, tx *sqlx.Tx, eventType, followerID, followeeID string) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"follower":   followerID,
		"followee":   followeeID,
	})
	_, err := tx.ExecContext(ctx, `INSERT INTO follow_events (event_type, follower_id, followee_id, payload) VALUES ($1, $2, $3, $4)`,
		eventType, followerID, followeeID, string(payload))
	return err
}

func pairLockKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
