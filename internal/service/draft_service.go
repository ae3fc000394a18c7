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

// draftService is the concrete implementation of DraftService
type draftService struct {
	repos     *repository.Repositories
	posts     PostService
	validator *validation.Validator
	log       zerolog.Logger
}

// newDraftService creates a new DraftService
func newDraftService(repos *repository.Repositories, posts PostService, validator *validation.Validator, log zerolog.Logger) *draftService {
	return &draftService{
		repos:     repos,
		posts:     posts,
		validator: validator,
		log:       log.With().Str("service", "draft").Logger(),
	}
}

// SaveDraft creates a draft when draftID is empty and replaces it otherwise
func (s *draftService) SaveDraft(ctx context.Context, authorID, draftID string, req *models.SaveDraftRequest) (*models.Draft, error) {
	creating := draftID == ""
	if err := validation.ToError(s.validator.ValidateDraft(req, creating)); err != nil {
		return nil, err
	}
	if _, err := content.ParseFormat(req.Format, content.FormatHTML); err != nil {
		return nil, apperr.Validation("format", err.Error())
	}

	now := time.Now()
	draft := &models.Draft{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		CreatedAt: now,
	}
	if !creating {
		existing, err := s.GetDraft(ctx, draftID, authorID)
		if err != nil {
			return nil, err
		}
		draft = existing
	}

	if req.Type != nil {
		draft.Type = *req.Type
	}
	draft.BlogID = nil
	if req.BlogID != "" {
		blogID := req.BlogID
		draft.BlogID = &blogID
	}
	draft.Title = strings.TrimSpace(req.Title)
	if draft.Title == "" {
		draft.Title = models.DefaultDraftTitle
	}
	draft.Addition = strings.TrimSpace(req.Addition)
	draft.Text = req.Text
	draft.Tags = req.Tags
	draft.Format = req.Format
	draft.UpdatedAt = now

	if creating {
		if err := s.repos.Draft.Create(ctx, draft); err != nil {
			return nil, err
		}
	} else if err := s.repos.Draft.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("draft_id", draft.ID).
		Str("author_id", authorID).
		Bool("created", creating).
		Msg("Draft saved")
	return draft, nil
}

// GetDraft returns a draft owned by userID. Drafts of other users are
// reported as missing.
func (s *draftService) GetDraft(ctx context.Context, draftID, userID string) (*models.Draft, error) {
	notFound := apperr.NotFound("draft_not_found", "draft not found")
	if !validation.IsValidUUID(draftID) {
		return nil, notFound
	}
	draft, err := s.repos.Draft.GetByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if draft == nil || draft.AuthorID != userID {
		return nil, notFound
	}
	return draft, nil
}

// ListDrafts returns the user's drafts, last edited first
func (s *draftService) ListDrafts(ctx context.Context, userID string) ([]*models.Draft, error) {
	return s.repos.Draft.ListForAuthor(ctx, userID)
}

// DeleteDraft removes a draft owned by userID
func (s *draftService) DeleteDraft(ctx context.Context, draftID, userID string) error {
	if _, err := s.GetDraft(ctx, draftID, userID); err != nil {
		return err
	}
	if _, err := s.repos.Draft.Delete(ctx, draftID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// PublishDraft creates a post from the draft with the usual publishing
// rules, then removes the draft
func (s *draftService) PublishDraft(ctx context.Context, draftID, userID string) (*models.Post, error) {
	draft, err := s.GetDraft(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.CreatePost(ctx, userID, draft.PostRequest())
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.Draft.Delete(ctx, draft.ID); err != nil {
		s.log.Warn().Err(err).Str("draft_id", draft.ID).Msg("Failed to remove published draft")
	}

	s.log.Info().
		Str("draft_id", draft.ID).
		Str("post_id", post.ID).
		Msg("Draft published")
	return post, nil
}
