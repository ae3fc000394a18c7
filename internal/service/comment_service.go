package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	pipeline  *content.Pipeline
	validator *validation.Validator
	log       zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, pipeline *content.Pipeline, validator *validation.Validator, log zerolog.Logger) *commentService {
	return &commentService{
		repos:     repos,
		pipeline:  pipeline,
		validator: validator,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// AddComment replies to req.ParentID, or to the post itself when the parent
// is empty or belongs to another post. Posts with replies disabled refuse
// new comments.
func (s *commentService) AddComment(ctx context.Context, postID, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := validation.ToError(s.validator.ValidateComment(req)); err != nil {
		return nil, err
	}
	if !validation.IsValidUUID(postID) {
		return nil, apperr.NotFound("post_not_found", "post not found")
	}

	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post_not_found", "post not found")
	}
	if post.DisableReply {
		return nil, apperr.Unauthorized("replies_disabled", "replies are disabled for this post")
	}

	root, err := s.repos.Comment.GetRoot(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get root comment: %w", err)
	}
	if root == nil {
		return nil, apperr.NotFound("root_not_found", "post has no comment root")
	}

	parentID := root.ID
	if req.ParentID != "" {
		parent, err := s.repos.Comment.GetByID(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent comment: %w", err)
		}
		if parent != nil && parent.PostID == postID {
			parentID = parent.ID
		}
	}

	text := strings.TrimSpace(s.pipeline.Parse(req.Text))
	if text == "" {
		return nil, apperr.Validation("text", "text is empty after sanitizing")
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  &authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.repos.Comment.AddChild(ctx, parentID, comment); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("comment_id", comment.ID).
		Str("post_id", postID).
		Int("depth", comment.Depth).
		Msg("Comment added")
	return comment, nil
}

// GetThread returns every comment of a post in thread order. A post without
// a root has no comments.
func (s *commentService) GetThread(ctx context.Context, postID string) ([]*models.Comment, error) {
	if !validation.IsValidUUID(postID) {
		return []*models.Comment{}, nil
	}
	root, err := s.repos.Comment.GetRoot(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get root comment: %w", err)
	}
	if root == nil {
		return []*models.Comment{}, nil
	}
	return s.repos.Comment.GetSubtree(ctx, root.ID)
}

// GetSubtree returns the replies below a comment in thread order
func (s *commentService) GetSubtree(ctx context.Context, commentID string) ([]*models.Comment, error) {
	if !validation.IsValidUUID(commentID) {
		return nil, apperr.NotFound("comment_not_found", "comment not found")
	}
	comment, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("comment_not_found", "comment not found")
	}
	return s.repos.Comment.GetSubtree(ctx, commentID)
}
