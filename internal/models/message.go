package models

import (
	"time"
)

// MessageSide identifies which party of a message acts
type MessageSide int

const (
	SideSender MessageSide = iota + 1
	SideRecipient
)

// Message is a private message; each side deletes independently and the
// row is removed once both did
type Message struct {
	ID               string    `json:"id" db:"id"`
	SenderID         string    `json:"sender_id" db:"sender_id"`
	RecipientID      string    `json:"recipient_id" db:"recipient_id"`
	Title            string    `json:"title" db:"title"`
	Text             string    `json:"text" db:"text"`
	SenderDeleted    bool      `json:"-" db:"sender_deleted"`
	RecipientDeleted bool      `json:"-" db:"recipient_deleted"`
	Deleted          int       `json:"-" db:"deleted"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Sides returns the sides userID occupies on m
func (m *Message) Sides(userID string) []MessageSide {
	var sides []MessageSide
	if m.SenderID == userID {
		sides = append(sides, SideSender)
	}
	if m.RecipientID == userID {
		sides = append(sides, SideRecipient)
	}
	return sides
}

// MarkDeleted flags one side and recomputes the deleted counter
func (m *Message) MarkDeleted(side MessageSide) {
	switch side {
	case SideSender:
		m.SenderDeleted = true
	case SideRecipient:
		m.RecipientDeleted = true
	}
	m.Deleted = 0
	if m.SenderDeleted {
		m.Deleted++
	}
	if m.RecipientDeleted {
		m.Deleted++
	}
}

// Purged reports whether both sides deleted the message
func (m *Message) Purged() bool {
	return m.Deleted >= 2
}

// SendMessageRequest is the payload for sending a message
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
}
