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

// pollService is the concrete implementation of PollService
type pollService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newPollService creates a new PollService
func newPollService(repos *repository.Repositories, log zerolog.Logger) *pollService {
	return &pollService{
		repos: repos,
		log:   log.With().Str("service", "poll").Logger(),
	}
}

// Check reports whether userID may still vote on the poll
func (s *pollService) Check(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.poll(ctx, postID); err != nil {
		return false, err
	}
	voted, err := s.repos.Answer.HasVoted(ctx, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return !voted, nil
}

// Vote casts a single-choice ballot
func (s *pollService) Vote(ctx context.Context, postID, userID, answerID string) (bool, error) {
	return s.VoteMultiple(ctx, postID, userID, []string{answerID})
}

// VoteMultiple increments every chosen answer and locks the user out of the
// poll in one transaction. Returns false when the user already voted.
func (s *pollService) VoteMultiple(ctx context.Context, postID, userID string, answerIDs []string) (bool, error) {
	post, err := s.poll(ctx, postID)
	if err != nil {
		return false, err
	}

	ids := make([]string, 0, len(answerIDs))
	seen := make(map[string]bool, len(answerIDs))
	for _, id := range answerIDs {
		if !validation.IsValidUUID(id) {
			return false, apperr.Validation("answer_ids", fmt.Sprintf("invalid answer id: %s", id))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	switch {
	case len(ids) == 0:
		return false, apperr.Validation("answer_ids", "at least one answer is required")
	case post.Type == models.PostTypeAnswer && len(ids) != 1:
		return false, apperr.Validation("answer_ids", "this poll accepts exactly one answer")
	}

	voted, err := s.repos.Answer.CastBallot(ctx, postID, userID, ids)
	if err != nil {
		return false, err
	}

	s.log.Debug().
		Str("post_id", postID).
		Str("user_id", userID).
		Int("choices", len(ids)).
		Bool("voted", voted).
		Msg("Ballot processed")
	return voted, nil
}

// Fix writes the vote lock without counting any answer
func (s *pollService) Fix(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.poll(ctx, postID); err != nil {
		return false, err
	}
	return s.repos.Answer.Fix(ctx, postID, userID)
}

// Results lists the answers of a poll with their counts
func (s *pollService) Results(ctx context.Context, postID string) ([]*models.Answer, error) {
	if _, err := s.poll(ctx, postID); err != nil {
		return nil, err
	}
	return s.repos.Answer.ListForPost(ctx, postID)
}

func (s *pollService) poll(ctx context.Context, postID string) (*models.Post, error) {
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
	if !post.Type.IsPoll() {
		return nil, apperr.Validation("post_id", "post is not a poll")
	}
	return post, nil
}
