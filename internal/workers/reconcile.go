package workers

import (
	"context"
	"log"
	"time"

	"social-service/internal/repositories"
)

// Reconciler sweeps the user table and rewrites any denormalized follow
// counter that drifted from the edge table. The edge table is the source
// of truth; counters are a read optimization.
type Reconciler struct {
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	batchSize int
	interval  time.Duration
}

// NewReconciler builds a Reconciler with the default batch and cadence.
func NewReconciler(users repositories.UserRepository, follows repositories.FollowRepository) *Reconciler {
	return &Reconciler{
		users:     users,
		follows:   follows,
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

// Run sweeps on a fixed cadence until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *Reconciler) reconcileOnce(ctx context.Context) {
	lastID := ""
	for {
		users, err := r.users.ListUsersAfter(ctx, lastID, r.batchSize)
		if err != nil {
			log.Printf("reconcile list users failed: %v", err)
			return
		}
		if len(users) == 0 {
			return
		}

		for _, user := range users {
			followers, err := r.follows.CountFollowers(ctx, user.ID)
			if err != nil {
				log.Printf("reconcile count followers failed user=%s: %v", user.ID, err)
				continue
			}
			following, err := r.follows.CountFollowing(ctx, user.ID)
			if err != nil {
				log.Printf("reconcile count following failed user=%s: %v", user.ID, err)
				continue
			}
			if followers == user.FollowerCount && following == user.FollowingCount {
				continue
			}

			log.Printf("reconcile drift user=%s followers=%d->%d following=%d->%d",
				user.ID, user.FollowerCount, followers, user.FollowingCount, following)
			if err := r.users.SetFollowCounts(ctx, user.ID, followers, following); err != nil {
				log.Printf("reconcile update failed user=%s: %v", user.ID, err)
			}
		}

		lastID = users[len(users)-1].ID
	}
}
