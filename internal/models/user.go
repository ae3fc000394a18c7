package models

import (
	"time"
)

// User represents a registered member
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Profile holds the per-user counters and preferences, one per user
type Profile struct {
	UserID        string `json:"user_id" db:"user_id"`
	Rate          int    `json:"rate" db:"rate"`
	RateCount     int    `json:"rate_count" db:"rate_count"`
	PostsRate     int    `json:"posts_rate" db:"posts_rate"`
	CommentsRate  int    `json:"comments_rate" db:"comments_rate"`
	BlogsRate     int    `json:"blogs_rate" db:"blogs_rate"`
	City          string `json:"city" db:"city"`
	ICQ           string `json:"icq" db:"icq"`
	Jabber        string `json:"jabber" db:"jabber"`
	Site          string `json:"site" db:"site"`
	About         string `json:"about" db:"about"`
	HideMail      bool   `json:"hide_mail" db:"hide_mail"`
	ReplyPost     bool   `json:"reply_post" db:"reply_post"`
	ReplyComment  bool   `json:"reply_comment" db:"reply_comment"`
	ReplyPM       bool   `json:"reply_pm" db:"reply_pm"`
	NotifyMention bool   `json:"notify_mention" db:"notify_mention"`
}

// NewProfile returns the profile created alongside a new user
func NewProfile(userID string) *Profile {
	return &Profile{
		UserID:        userID,
		HideMail:      true,
		ReplyPost:     true,
		ReplyComment:  true,
		ReplyPM:       true,
		NotifyMention: true,
	}
}

// CreateUserRequest is the payload for registering a user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfileRequest carries editable profile fields
type UpdateProfileRequest struct {
	City          *string `json:"city,omitempty"`
	ICQ           *string `json:"icq,omitempty"`
	Jabber        *string `json:"jabber,omitempty"`
	Site          *string `json:"site,omitempty"`
	About         *string `json:"about,omitempty"`
	HideMail      *bool   `json:"hide_mail,omitempty"`
	ReplyPost     *bool   `json:"reply_post,omitempty"`
	ReplyComment  *bool   `json:"reply_comment,omitempty"`
	ReplyPM       *bool   `json:"reply_pm,omitempty"`
	NotifyMention *bool   `json:"notify_mention,omitempty"`
}

// Apply copies the set fields onto p
func (r *UpdateProfileRequest) Apply(p *Profile) {
	if r.City != nil {
		p.City = *r.City
	}
	if r.ICQ != nil {
		p.ICQ = *r.ICQ
	}
	if r.Jabber != nil {
		p.Jabber = *r.Jabber
	}
	if r.Site != nil {
		p.Site = *r.Site
	}
	if r.About != nil {
		p.About = *r.About
	}
	if r.HideMail != nil {
		p.HideMail = *r.HideMail
	}
	if r.ReplyPost != nil {
		p.ReplyPost = *r.ReplyPost
	}
	if r.ReplyComment != nil {
		p.ReplyComment = *r.ReplyComment
	}
	if r.ReplyPM != nil {
		p.ReplyPM = *r.ReplyPM
	}
	if r.NotifyMention != nil {
		p.NotifyMention = *r.NotifyMention
	}
}
