package models

import "time"

// User is the locally stored profile summary. The follower and following
// sets live in the follows edge table; the counters here are denormalized
// and repaired by the background reconciler when they drift.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Fullname       string    `db:"fullname" json:"fullname"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Follow is a single directed edge of the follow graph. The mutual
// invariant (A follows B iff B counts A as a follower) holds by
// construction: both views are reads of the same edge.
type Follow struct {
	FollowerID string    `db:"follower_id" json:"follower_id"`
	FolloweeID string    `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
