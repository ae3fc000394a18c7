package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/feed"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/notify"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// postService is the concrete implementation of PostService
type postService struct {
	repos      *repository.Repositories
	blogs      BlogService
	pipeline   *content.Pipeline
	validator  *validation.Validator
	dispatcher notify.Dispatcher
	pinger     feed.Pinger
	log        zerolog.Logger
}

// newPostService creates a new PostService
func newPostService(
	repos *repository.Repositories,
	blogs BlogService,
	pipeline *content.Pipeline,
	validator *validation.Validator,
	dispatcher notify.Dispatcher,
	pinger feed.Pinger,
	log zerolog.Logger,
) *postService {
	return &postService{
		repos:      repos,
		blogs:      blogs,
		pipeline:   pipeline,
		validator:  validator,
		dispatcher: dispatcher,
		pinger:     pinger,
		log:        log.With().Str("service", "post").Logger(),
	}
}

// CreatePost publishes a Post, Link or Translate post
func (s *postService) CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error) {
	if err := validation.ToError(s.validator.ValidatePost(req)); err != nil {
		return nil, err
	}
	format, err := content.ParseFormat(req.Format, s.pipeline.DefaultFormat())
	if err != nil {
		return nil, apperr.Validation("format", err.Error())
	}
	tags, _ := s.validator.ParseTags(req.Tags)

	now := time.Now()
	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Type:      req.Type,
		Title:     strings.TrimSpace(req.Title),
		Addition:  strings.TrimSpace(req.Addition),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.placeInBlog(ctx, post, req.BlogID, authorID); err != nil {
		return nil, err
	}

	post.Preview, post.Text, err = s.pipeline.SetText(req.Text, format)
	if err != nil {
		return nil, apperr.Validation("text", err.Error())
	}

	if _, err := s.repos.Post.Create(ctx, post, nil); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("post_id", post.ID).
		Str("author_id", authorID).
		Str("type", post.Type.String()).
		Msg("Post published")

	s.notifyMentions(ctx, post, "")
	s.ping(ctx)
	return post, nil
}

// CreatePoll publishes an Answer or MultipleAnswer post with its options
func (s *postService) CreatePoll(ctx context.Context, authorID string, req *models.CreatePollRequest) (*models.Post, error) {
	values, errs := s.validator.ValidatePoll(req)
	if err := validation.ToError(errs); err != nil {
		return nil, err
	}
	format, err := content.ParseFormat(req.Format, s.pipeline.DefaultFormat())
	if err != nil {
		return nil, apperr.Validation("format", err.Error())
	}
	tags, _ := s.validator.ParseTags(req.Tags)

	now := time.Now()
	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Type:      req.Type,
		Title:     strings.TrimSpace(req.Title),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.placeInBlog(ctx, post, req.BlogID, authorID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) != "" {
		post.Preview, post.Text, err = s.pipeline.SetText(req.Text, format)
		if err != nil {
			return nil, apperr.Validation("text", err.Error())
		}
	}

	answers := make([]*models.Answer, len(values))
	for i, value := range values {
		answers[i] = &models.Answer{
			ID:       uuid.New().String(),
			PostID:   post.ID,
			Position: i,
			Value:    value,
		}
	}

	if _, err := s.repos.Post.Create(ctx, post, answers); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("post_id", post.ID).
		Str("author_id", authorID).
		Int("answers", len(answers)).
		Msg("Poll published")

	s.notifyMentions(ctx, post, "")
	s.ping(ctx)
	return post, nil
}

// EditPost replaces title, text, addition, tags and blog of a text post
func (s *postService) EditPost(ctx context.Context, postID, userID string, req *models.EditPostRequest) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := validation.ToError(s.validator.ValidateEdit(post.Type, req)); err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperr.Unauthorized("not_author", "only the author may edit this post")
	}
	format, err := content.ParseFormat(req.Format, s.pipeline.DefaultFormat())
	if err != nil {
		return nil, apperr.Validation("format", err.Error())
	}

	if err := s.placeInBlog(ctx, post, req.BlogID, userID); err != nil {
		return nil, err
	}

	previous := post.Text
	post.Preview, post.Text, err = s.pipeline.SetText(req.Text, format)
	if err != nil {
		return nil, apperr.Validation("text", err.Error())
	}
	post.Title = strings.TrimSpace(req.Title)
	post.Addition = strings.TrimSpace(req.Addition)
	post.Tags, _ = s.validator.ParseTags(req.Tags)
	post.UpdatedAt = time.Now()

	if err := s.repos.Post.Update(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info().Str("post_id", post.ID).Msg("Post edited")
	s.notifyMentions(ctx, post, previous)
	return post, nil
}

// SetOptions changes the reply, rating and pin switches of a post. The
// author and the owner of the post's blog may change them.
func (s *postService) SetOptions(ctx context.Context, postID, userID string, req *models.UpdatePostOptionsRequest) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	allowed := post.AuthorID == userID
	if !allowed && post.BlogID != nil {
		blog, err := s.blogs.GetBlog(ctx, *post.BlogID)
		if err != nil {
			return nil, err
		}
		allowed = blog.OwnerID == userID
	}
	if !allowed {
		return nil, apperr.Unauthorized("not_author", "only the author or the blog owner may change post options")
	}

	opts := req.Apply(post.PostOptions)
	if err := s.repos.Post.UpdateOptions(ctx, post.ID, opts); err != nil {
		return nil, err
	}
	post.PostOptions = opts

	s.log.Info().
		Str("post_id", post.ID).
		Bool("disable_reply", opts.DisableReply).
		Bool("disable_rate", opts.DisableRate).
		Bool("pinch", opts.Pinch).
		Msg("Post options changed")
	return post, nil
}

// GetPost returns a post by id
func (s *postService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if !validation.IsValidUUID(id) {
		return nil, apperr.NotFound("post_not_found", "post not found")
	}
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post_not_found", "post not found")
	}
	return post, nil
}

// GetContent returns the preview or full text of a post. Polls always
// return their answers whatever kind is requested.
func (s *postService) GetContent(ctx context.Context, postID string, kind models.ContentKind) (models.Content, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Type.IsPoll() {
		answers, err := s.repos.Answer.ListForPost(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list answers: %w", err)
		}
		return models.ChoiceContent{Answers: answers}, nil
	}

	switch kind {
	case models.ContentPreview:
		return models.TextContent{Text: post.Preview}, nil
	case models.ContentFull:
		return models.TextContent{Text: post.Text}, nil
	default:
		return nil, apperr.Validation("kind", fmt.Sprintf("unknown content kind: %d", kind))
	}
}

// ListPosts returns posts matching filter, newest first
func (s *postService) ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	if filter.Kind == "" {
		filter.Kind = models.FilterAll
	}
	if !models.ValidFilters[filter.Kind] {
		return nil, apperr.Validation("filter", fmt.Sprintf("unknown filter: %s", filter.Kind))
	}

	switch filter.Kind {
	case models.FilterBlog, models.FilterAuthor, models.FilterFavourite:
		if !validation.IsValidUUID(filter.Param) {
			return nil, apperr.Validation("param", fmt.Sprintf("%s filter requires a valid id", filter.Kind))
		}
	case models.FilterTag:
		if strings.TrimSpace(filter.Param) == "" {
			return nil, apperr.Validation("param", "tag filter requires a tag")
		}
	}

	return s.repos.Post.List(ctx, filter)
}

// SetBlog assigns post to blogID, or clears the blog when blogID is empty
func (s *postService) SetBlog(ctx context.Context, post *models.Post, blogID string) error {
	if blogID == "" {
		post.BlogID = nil
		return nil
	}
	blog, err := s.blogs.GetBlog(ctx, blogID)
	if err != nil {
		return err
	}
	post.BlogID = &blog.ID
	return nil
}

// placeInBlog sets the blog and requires userID to be a member of it
func (s *postService) placeInBlog(ctx context.Context, post *models.Post, blogID, userID string) error {
	if err := s.SetBlog(ctx, post, blogID); err != nil {
		return err
	}
	if post.BlogID == nil {
		return nil
	}

	member, err := s.blogs.CheckUser(ctx, *post.BlogID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return apperr.Unauthorized("not_a_member", "only blog members may post into this blog")
	}
	return nil
}

// notifyMentions sends one notification per distinct mentioned user that
// previous did not already mention. Dispatch failures are logged; the post
// is already saved.
func (s *postService) notifyMentions(ctx context.Context, post *models.Post, previous string) {
	known := make(map[string]bool)
	for _, name := range content.Mentions(previous) {
		known[strings.ToLower(name)] = true
	}

	for _, name := range content.Mentions(post.Text) {
		if known[strings.ToLower(name)] {
			continue
		}
		user, err := s.repos.User.GetByName(ctx, name)
		if err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("Failed to resolve mention")
			continue
		}
		if user == nil || user.ID == post.AuthorID {
			continue
		}

		profile, err := s.repos.User.GetProfile(ctx, user.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to load profile")
			continue
		}
		if profile != nil && !profile.NotifyMention {
			continue
		}

		if err := s.dispatcher.Notify(ctx, user.ID, post); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Str("post_id", post.ID).Msg("Failed to dispatch mention")
		}
	}
}

func (s *postService) ping(ctx context.Context) {
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Feed hub ping failed")
	}
}
