package models

import (
	"time"
)

// Blog is a collective space posts can be published into
type Blog struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Description string    `json:"description" db:"description"`
	Rate        int       `json:"rate" db:"rate"`
	RateCount   int       `json:"rate_count" db:"rate_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CreateBlogRequest is the payload for creating a blog
type CreateBlogRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
