package domain

import "time"

type Follow struct {
	ID          string    `bson:"_id" json:"id"`
	FollowerID  string    `bson:"follower_id" json:"follower_id"`
	FollowingID string    `bson:"following_id" json:"following_id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type BlockedUser struct {
	ID        string    `bson:"_id" json:"id"`
	BlockerID string    `bson:"blocker_id" json:"blocker_id"`
	BlockedID string    `bson:"blocked_id" json:"blocked_id"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type FollowStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}
