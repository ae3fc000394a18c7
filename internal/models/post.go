package models

import (
	"time"
)

// PostType distinguishes regular posts from polls
type PostType int

const (
	PostTypePost PostType = iota
	PostTypeLink
	PostTypeTranslate
	PostTypeAnswer
	PostTypeMultipleAnswer
)

var postTypeNames = map[PostType]string{
	PostTypePost:           "post",
	PostTypeLink:           "link",
	PostTypeTranslate:      "translate",
	PostTypeAnswer:         "answer",
	PostTypeMultipleAnswer: "multiple_answer",
}

func (t PostType) String() string {
	if name, ok := postTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether t is a known post type
func (t PostType) Valid() bool {
	_, ok := postTypeNames[t]
	return ok
}

// IsPoll reports whether the post carries answers instead of text
func (t PostType) IsPoll() bool {
	return t == PostTypeAnswer || t == PostTypeMultipleAnswer
}

// RequiresAddition reports whether the post must carry a source reference
func (t PostType) RequiresAddition() bool {
	return t == PostTypeLink || t == PostTypeTranslate
}

// Post represents a publication, optionally inside a blog
type Post struct {
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	BlogID    *string   `json:"blog_id,omitempty" db:"blog_id"`
	Type      PostType  `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Addition  string    `json:"addition,omitempty" db:"addition"`
	Preview   string    `json:"preview" db:"preview"`
	Text      string    `json:"text" db:"text"`
	Rate      int       `json:"rate" db:"rate"`
	RateCount int       `json:"rate_count" db:"rate_count"`
	Tags      []string  `json:"tags" db:"-"` // Stored in post_tags
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	PostOptions
}

// PostOptions are per-post switches. Pinch pins the post to the top of its
// blog listing.
type PostOptions struct {
	DisableReply bool `json:"disable_reply" db:"disable_reply"`
	DisableRate  bool `json:"disable_rate" db:"disable_rate"`
	Pinch        bool `json:"pinch" db:"pinch"`
}

// UpdatePostOptionsRequest changes the options that are present
type UpdatePostOptionsRequest struct {
	DisableReply *bool `json:"disable_reply"`
	DisableRate  *bool `json:"disable_rate"`
	Pinch        *bool `json:"pinch"`
}

// Apply returns o with the present fields of req applied
func (req *UpdatePostOptionsRequest) Apply(o PostOptions) PostOptions {
	if req.DisableReply != nil {
		o.DisableReply = *req.DisableReply
	}
	if req.DisableRate != nil {
		o.DisableRate = *req.DisableRate
	}
	if req.Pinch != nil {
		o.Pinch = *req.Pinch
	}
	return o
}

// ContentKind selects which rendition of a post is requested
type ContentKind int

const (
	ContentPreview ContentKind = iota
	ContentFull
)

// Content is either TextContent or ChoiceContent
type Content interface {
	isContent()
}

// TextContent is the rendered text of a regular post
type TextContent struct {
	Text string `json:"text"`
}

// ChoiceContent is the answer list of a poll
type ChoiceContent struct {
	Answers []*Answer `json:"answers"`
}

func (TextContent) isContent()   {}
func (ChoiceContent) isContent() {}

// PostFilterKind selects a post listing
type PostFilterKind string

const (
	FilterAll       PostFilterKind = "all"
	FilterPersonal  PostFilterKind = "personal"
	FilterMain      PostFilterKind = "main"
	FilterBlog      PostFilterKind = "blog"
	FilterTag       PostFilterKind = "tag"
	FilterAuthor    PostFilterKind = "author"
	FilterFavourite PostFilterKind = "favourite"
)

// ValidFilters lists accepted filter kinds
var ValidFilters = map[PostFilterKind]bool{
	FilterAll:       true,
	FilterPersonal:  true,
	FilterMain:      true,
	FilterBlog:      true,
	FilterTag:       true,
	FilterAuthor:    true,
	FilterFavourite: true,
}

// PostFilter narrows a post listing; Param is the blog id, tag, author id or user id
type PostFilter struct {
	Kind  PostFilterKind `json:"kind"`
	Param string         `json:"param,omitempty"`
	Limit int            `json:"limit,omitempty"`
}

// CreatePostRequest is the payload for Post, Link and Translate posts
type CreatePostRequest struct {
	Type     PostType `json:"type"`
	BlogID   string   `json:"blog_id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Addition string   `json:"addition"`
	Tags     string   `json:"tags"`
	Format   string   `json:"format"`
}

// CreatePollRequest is the payload for Answer and MultipleAnswer posts.
// Answers is a JSON array of strings; Text is an optional description.
type CreatePollRequest struct {
	Type    PostType `json:"type"`
	BlogID  string   `json:"blog_id"`
	Title   string   `json:"title"`
	Text    string   `json:"text"`
	Format  string   `json:"format"`
	Answers string   `json:"answers"`
	Tags    string   `json:"tags"`
}

// EditPostRequest is the payload for editing an existing post
type EditPostRequest struct {
	BlogID   string `json:"blog_id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Addition string `json:"addition"`
	Tags     string `json:"tags"`
	Format   string `json:"format"`
}
