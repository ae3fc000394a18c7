package models

import (
	"time"
)

// DefaultDraftTitle names drafts saved without a title
const DefaultDraftTitle = "Unnamed post"

// Draft is an unpublished Post, Link or Translate post. Text and tags are
// kept raw until the draft is published.
type Draft struct {
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	BlogID    *string   `json:"blog_id,omitempty" db:"blog_id"`
	Type      PostType  `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Addition  string    `json:"addition,omitempty" db:"addition"`
	Text      string    `json:"text" db:"text"`
	Tags      string    `json:"tags" db:"raw_tags"`
	Format    string    `json:"format,omitempty" db:"format"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SaveDraftRequest creates or replaces a draft. Type may be omitted when
// updating; the draft keeps its type.
type SaveDraftRequest struct {
	Type     *PostType `json:"type"`
	BlogID   string    `json:"blog_id"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	Addition string    `json:"addition"`
	Tags     string    `json:"tags"`
	Format   string    `json:"format"`
}

// PostRequest turns the draft into a publish request
func (d *Draft) PostRequest() *CreatePostRequest {
	req := &CreatePostRequest{
		Type:     d.Type,
		Title:    d.Title,
		Text:     d.Text,
		Addition: d.Addition,
		Tags:     d.Tags,
		Format:   d.Format,
	}
	if d.BlogID != nil {
		req.BlogID = *d.BlogID
	}
	return req
}
