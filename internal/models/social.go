package models

import (
	"time"
)

// MarkKind names a per-user post marker
type MarkKind string

const (
	MarkFavourite MarkKind = "favourite"
	MarkSpy       MarkKind = "spy"
)

// Mark is a favourite or spy (watch) entry
type Mark struct {
	Kind      MarkKind  `json:"kind"`
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Friend is a one-directional friendship edge
type Friend struct {
	UserID    string    `json:"user_id" db:"user_id"`
	FriendID  string    `json:"friend_id" db:"friend_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
