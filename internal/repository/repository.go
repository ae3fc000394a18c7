package repository

import (
	"context"

	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

// UserRepository defines the interface for user and profile data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	Count(ctx context.Context) (int, error)
}

// BlogRepository defines the interface for blogs and their membership
type BlogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id string) (*models.Blog, error)
	IsMember(ctx context.Context, blogID, userID string) (bool, error)
	AddMember(ctx context.Context, blogID, userID string) (bool, error)
	RemoveMember(ctx context.Context, blogID, userID string) (bool, error)
	ListMembers(ctx context.Context, blogID string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// PostRepository defines the interface for post data operations.
// Create stores the post, its root comment, its answers and its tags atomically.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, answers []*models.Answer) (*models.Comment, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateOptions(ctx context.Context, postID string, opts models.PostOptions) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	StreamPublished(ctx context.Context, limit int, callback func(*models.Post) error) error
	Count(ctx context.Context) (int, error)
}

// DraftRepository defines the interface for unpublished posts
type DraftRepository interface {
	Create(ctx context.Context, draft *models.Draft) error
	Update(ctx context.Context, draft *models.Draft) error
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	ListForAuthor(ctx context.Context, authorID string) ([]*models.Draft, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CommentRepository defines the interface for comment tree operations
type CommentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	GetRoot(ctx context.Context, postID string) (*models.Comment, error)
	AddChild(ctx context.Context, parentID string, comment *models.Comment) error
	GetSubtree(ctx context.Context, commentID string) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
}

// RateRepository is the rating ledger. Apply records the audit row and bumps
// the counters in one transaction; a repeated rating is not applied.
type RateRepository interface {
	Apply(ctx context.Context, kind models.RateKind, subjectID, userID string, delta int) (models.RateResult, error)
	HasRated(ctx context.Context, kind models.RateKind, subjectID, userID string) (bool, error)
}

// AnswerRepository defines the interface for poll answers and ballots
type AnswerRepository interface {
	ListForPost(ctx context.Context, postID string) ([]*models.Answer, error)
	HasVoted(ctx context.Context, postID, userID string) (bool, error)
	Fix(ctx context.Context, postID, userID string) (bool, error)
	CastBallot(ctx context.Context, postID, userID string, answerIDs []string) (bool, error)
}

// MarkRepository defines the interface for favourite and spy toggles
type MarkRepository interface {
	Toggle(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error)
	Has(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error)
	ListPostIDs(ctx context.Context, kind models.MarkKind, userID string) ([]string, error)
}

// FriendRepository defines the interface for friendship edges
type FriendRepository interface {
	Add(ctx context.Context, userID, friendID string) (bool, error)
	Remove(ctx context.Context, userID, friendID string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// MessageRepository defines the interface for private messages
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	MarkDeleted(ctx context.Context, id string, sides []models.MessageSide) (*models.Message, error)
	Inbox(ctx context.Context, userID string) ([]*models.Message, error)
	Outbox(ctx context.Context, userID string) ([]*models.Message, error)
}

// NotificationRepository defines the interface for stored notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string) ([]*models.Notification, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Blog         BlogRepository
	Post         PostRepository
	Draft        DraftRepository
	Comment      CommentRepository
	Rate         RateRepository
	Answer       AnswerRepository
	Mark         MarkRepository
	Friend       FriendRepository
	Message      MessageRepository
	Notification NotificationRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepo(db),
		Blog:         NewBlogRepo(db),
		Post:         NewPostRepo(db),
		Draft:        NewDraftRepo(db),
		Comment:      NewCommentRepo(db),
		Rate:         NewRateRepo(db),
		Answer:       NewAnswerRepo(db),
		Mark:         NewMarkRepo(db),
		Friend:       NewFriendRepo(db),
		Message:      NewMessageRepo(db),
		Notification: NewNotificationRepo(db),
	}
}
