package models

import "time"

// FriendStatus tracks a friend relation's lifecycle.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// Friend is a directed friend relation row; a pending row is a request from
// UserID to FriendID, an accepted row is a confirmed friendship.
type Friend struct {
	UserID    string       `json:"user_id" db:"user_id"`
	FriendID  string       `json:"friend_id" db:"friend_id"`
	Status    FriendStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// FriendView joins the relation with the other party's display snapshot.
type FriendView struct {
	Friend
	Profile PublicProfile `json:"profile"`
}
