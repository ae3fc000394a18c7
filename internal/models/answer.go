package models

import (
	"time"
)

// Answer is one option of a poll
type Answer struct {
	ID       string `json:"id" db:"id"`
	PostID   string `json:"post_id" db:"post_id"`
	Position int    `json:"position" db:"position"`
	Value    string `json:"value" db:"value"`
	Count    int    `json:"count" db:"count"`
}

// AnswerVote is the per-user lock proving a ballot was cast
type AnswerVote struct {
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// VoteRequest carries the chosen answer ids
type VoteRequest struct {
	AnswerIDs []string `json:"answer_ids"`
}

// MinPollAnswers is the minimum number of options a poll must offer
const MinPollAnswers = 2
