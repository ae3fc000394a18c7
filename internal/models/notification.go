package models

import (
	"time"
)

// NotificationKindMention marks a notification produced by an @name mention
const NotificationKindMention = "mention"

// Notification records that a user should be told about a post
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	PostID    string    `json:"post_id" db:"post_id"`
	Kind      string    `json:"kind" db:"kind"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
