package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

// UserRepository is the identity directory: profile summaries are only
// queried here, never mutated, except for the denormalized counters the
// reconciler repairs.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsersAfter(ctx context.Context, lastID string, limit int) ([]models.User, error)
	SetFollowCounts(ctx context.Context, userID string, followers, following int) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const selectUserColumns = `SELECT id, username, fullname, follower_count, following_count, created_at FROM users`

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, selectUserColumns+` WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByUsername fetches a user by username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, selectUserColumns+` WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsersAfter pages over users in id order for the reconciliation sweep.
func (r *UserRepo) ListUsersAfter(ctx context.Context, lastID string, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, selectUserColumns+` WHERE id > $1 ORDER BY id ASC LIMIT $2`, lastID, limit)
	return users, err
}

// SetFollowCounts overwrites the denormalized counters with recomputed values.
func (r *UserRepo) SetFollowCounts(ctx context.Context, userID string, followers, following int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET follower_count=$2, following_count=$3 WHERE id=$1`,
		userID, followers, following)
	return err
}
