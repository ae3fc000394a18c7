package service

import (
	"context"
	"io"

	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/feed"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/notify"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// UserService defines the interface for user and profile operations
type UserService interface {
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error)
	Notifications(ctx context.Context, userID string) ([]*models.Notification, error)
}

// BlogService defines the interface for blogs and membership
type BlogService interface {
	CreateBlog(ctx context.Context, ownerID string, req *models.CreateBlogRequest) (*models.Blog, error)
	GetBlog(ctx context.Context, id string) (*models.Blog, error)
	CheckUser(ctx context.Context, blogID, userID string) (bool, error)
	Join(ctx context.Context, blogID, userID string) (bool, error)
	Leave(ctx context.Context, blogID, userID string) (bool, error)
	Members(ctx context.Context, blogID string) ([]string, error)
}

// PostService defines the interface for post publishing and reading
type PostService interface {
	CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error)
	CreatePoll(ctx context.Context, authorID string, req *models.CreatePollRequest) (*models.Post, error)
	EditPost(ctx context.Context, postID, userID string, req *models.EditPostRequest) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetContent(ctx context.Context, postID string, kind models.ContentKind) (models.Content, error)
	ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	SetBlog(ctx context.Context, post *models.Post, blogID string) error
	SetOptions(ctx context.Context, postID, userID string, req *models.UpdatePostOptionsRequest) (*models.Post, error)
}

// DraftService defines the interface for unpublished posts
type DraftService interface {
	SaveDraft(ctx context.Context, authorID, draftID string, req *models.SaveDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, draftID, userID string) (*models.Draft, error)
	ListDrafts(ctx context.Context, userID string) ([]*models.Draft, error)
	DeleteDraft(ctx context.Context, draftID, userID string) error
	PublishDraft(ctx context.Context, draftID, userID string) (*models.Post, error)
}

// CommentService defines the interface for threaded comments
type CommentService interface {
	AddComment(ctx context.Context, postID, authorID string, req *models.CreateCommentRequest) (*models.Comment, error)
	GetThread(ctx context.Context, postID string) ([]*models.Comment, error)
	GetSubtree(ctx context.Context, commentID string) ([]*models.Comment, error)
}

// RatingService defines the interface for rating posts, comments, blogs and users
type RatingService interface {
	Rate(ctx context.Context, kind models.RateKind, subjectID, userID string, delta int) (models.RateResult, error)
	HasRated(ctx context.Context, kind models.RateKind, subjectID, userID string) (bool, error)
}

// PollService defines the interface for poll voting
type PollService interface {
	Check(ctx context.Context, postID, userID string) (bool, error)
	Vote(ctx context.Context, postID, userID, answerID string) (bool, error)
	VoteMultiple(ctx context.Context, postID, userID string, answerIDs []string) (bool, error)
	Fix(ctx context.Context, postID, userID string) (bool, error)
	Results(ctx context.Context, postID string) ([]*models.Answer, error)
}

// SocialService defines the interface for favourites, spies, friends and messages
type SocialService interface {
	ToggleMark(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error)
	AddFriend(ctx context.Context, userID, friendID string) (bool, error)
	RemoveFriend(ctx context.Context, userID, friendID string) (bool, error)
	Friends(ctx context.Context, userID string) ([]string, error)
	SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error)
	RemoveMessage(ctx context.Context, messageID, userID string) (*models.Message, error)
	Inbox(ctx context.Context, userID string) ([]*models.Message, error)
	Outbox(ctx context.Context, userID string) ([]*models.Message, error)
}

// FeedService defines the interface for exporting published posts
type FeedService interface {
	StreamPosts(ctx context.Context, w io.Writer, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	User    UserService
	Blog    BlogService
	Post    PostService
	Draft   DraftService
	Comment CommentService
	Rating  RatingService
	Poll    PollService
	Social  SocialService
	Feed    FeedService
}

// NewServices creates all services
func NewServices(
	repos *repository.Repositories,
	pipeline *content.Pipeline,
	dispatcher notify.Dispatcher,
	pinger feed.Pinger,
	cfg *config.Config,
	log zerolog.Logger,
) *Services {
	validator := validation.NewValidator(cfg.Content.MaxTags)

	blogSvc := newBlogService(repos, validator, log)
	postSvc := newPostService(repos, blogSvc, pipeline, validator, dispatcher, pinger, log)

	return &Services{
		User:    newUserService(repos, validator, log),
		Blog:    blogSvc,
		Post:    postSvc,
		Draft:   newDraftService(repos, postSvc, validator, log),
		Comment: newCommentService(repos, pipeline, validator, log),
		Rating:  newRatingService(repos, log),
		Poll:    newPollService(repos, log),
		Social:  newSocialService(repos, validator, log),
		Feed:    newFeedService(repos, cfg.Feed.ExportLimit, log),
	}
}
