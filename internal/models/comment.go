package models

import (
	"time"

	"github.com/community-blog-api/internal/commenttree"
)

// Comment is a node of a post's comment tree.
// The root comment of every post has no author and depth 1.
type Comment struct {
	ID          string    `json:"id" db:"id"`
	PostID      string    `json:"post_id" db:"post_id"`
	AuthorID    *string   `json:"author_id,omitempty" db:"author_id"`
	Text        string    `json:"text" db:"text"`
	Rate        int       `json:"rate" db:"rate"`
	RateCount   int       `json:"rate_count" db:"rate_count"`
	Depth       int       `json:"depth" db:"depth"`
	Path        string    `json:"-" db:"path"`
	NumChild    int       `json:"numchild" db:"numchild"`
	Descendants int       `json:"descendants" db:"descendants"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsRoot reports whether c is the synthetic root of its post
func (c *Comment) IsRoot() bool {
	return c.Depth == 1
}

// Margin returns the render indent for c
func (c *Comment) Margin() int {
	return commenttree.Margin(c.Depth)
}

// CreateCommentRequest is the payload for replying in a thread.
// An empty ParentID replies to the post itself.
type CreateCommentRequest struct {
	ParentID string `json:"parent_id"`
	Text     string `json:"text"`
}

// MaxCommentLength is the maximum allowed runes in a comment body
const MaxCommentLength = 10000
