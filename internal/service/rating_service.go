package service

import (
	"context"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// ratingService is the concrete implementation of RatingService
type ratingService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newRatingService creates a new RatingService
func newRatingService(repos *repository.Repositories, log zerolog.Logger) *ratingService {
	return &ratingService{
		repos: repos,
		log:   log.With().Str("service", "rating").Logger(),
	}
}

// Rate applies delta once per (subject, user). A repeated rating returns
// Applied=false without error.
func (s *ratingService) Rate(ctx context.Context, kind models.RateKind, subjectID, userID string, delta int) (models.RateResult, error) {
	if !models.ValidRateKinds[kind] {
		return models.RateResult{}, apperr.Validation("kind", fmt.Sprintf("unknown rating kind: %s", kind))
	}
	if delta != 1 && delta != -1 {
		return models.RateResult{}, apperr.Validation("delta", "delta must be 1 or -1")
	}
	notFound := apperr.NotFound(string(kind)+"_not_found", fmt.Sprintf("%s not found", kind))
	if !validation.IsValidUUID(subjectID) {
		return models.RateResult{}, notFound
	}

	owner, err := s.ownerOf(ctx, kind, subjectID)
	if err != nil {
		return models.RateResult{}, err
	}
	if owner == "" {
		return models.RateResult{}, notFound
	}
	if owner == userID {
		return models.RateResult{}, apperr.Unauthorized("self_rating", fmt.Sprintf("you cannot rate your own %s", kind))
	}

	result, err := s.repos.Rate.Apply(ctx, kind, subjectID, userID, delta)
	if err != nil {
		return models.RateResult{}, err
	}

	s.log.Debug().
		Str("kind", string(kind)).
		Str("subject_id", subjectID).
		Str("user_id", userID).
		Bool("applied", result.Applied).
		Msg("Rating processed")
	return result, nil
}

// HasRated reports whether userID already rated the subject
func (s *ratingService) HasRated(ctx context.Context, kind models.RateKind, subjectID, userID string) (bool, error) {
	if !models.ValidRateKinds[kind] {
		return false, apperr.Validation("kind", fmt.Sprintf("unknown rating kind: %s", kind))
	}
	if !validation.IsValidUUID(subjectID) {
		return false, apperr.NotFound(string(kind)+"_not_found", fmt.Sprintf("%s not found", kind))
	}
	return s.repos.Rate.HasRated(ctx, kind, subjectID, userID)
}

// ownerOf returns the author or owner of a subject, "" when it does not exist.
// Posts with rating disabled fail with Unauthorized.
func (s *ratingService) ownerOf(ctx context.Context, kind models.RateKind, id string) (string, error) {
	switch kind {
	case models.RateKindPost:
		post, err := s.repos.Post.GetByID(ctx, id)
		if err != nil || post == nil {
			return "", err
		}
		if post.DisableRate {
			return "", apperr.Unauthorized("rating_disabled", "rating is disabled for this post")
		}
		return post.AuthorID, nil

	case models.RateKindComment:
		comment, err := s.repos.Comment.GetByID(ctx, id)
		if err != nil || comment == nil {
			return "", err
		}
		if comment.AuthorID == nil {
			// the synthetic root cannot be rated
			return "", nil
		}
		return *comment.AuthorID, nil

	case models.RateKindBlog:
		blog, err := s.repos.Blog.GetByID(ctx, id)
		if err != nil || blog == nil {
			return "", err
		}
		return blog.OwnerID, nil

	default:
		user, err := s.repos.User.GetByID(ctx, id)
		if err != nil || user == nil {
			return "", err
		}
		return user.ID, nil
	}
}
