package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// socialService is the concrete implementation of SocialService
type socialService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

// newSocialService creates a new SocialService
func newSocialService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *socialService {
	return &socialService{
		repos:     repos,
		validator: validator,
		log:       log.With().Str("service", "social").Logger(),
	}
}

// ToggleMark flips a favourite or spy mark; true when the mark is now set
func (s *socialService) ToggleMark(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error) {
	if kind != models.MarkFavourite && kind != models.MarkSpy {
		return false, apperr.Validation("kind", fmt.Sprintf("unknown mark: %s", kind))
	}
	if !validation.IsValidUUID(postID) {
		return false, apperr.NotFound("post_not_found", "post not found")
	}
	return s.repos.Mark.Toggle(ctx, kind, postID, userID)
}

// AddFriend adds friendID to the friend list; false when already present
func (s *socialService) AddFriend(ctx context.Context, userID, friendID string) (bool, error) {
	if !validation.IsValidUUID(friendID) {
		return false, apperr.NotFound("user_not_found", "user not found")
	}
	if friendID == userID {
		return false, apperr.Validation("friend_id", "you cannot befriend yourself")
	}
	return s.repos.Friend.Add(ctx, userID, friendID)
}

// RemoveFriend removes friendID from the friend list; false when absent
func (s *socialService) RemoveFriend(ctx context.Context, userID, friendID string) (bool, error) {
	if !validation.IsValidUUID(friendID) {
		return false, nil
	}
	return s.repos.Friend.Remove(ctx, userID, friendID)
}

// Friends lists the friend ids of a user
func (s *socialService) Friends(ctx context.Context, userID string) ([]string, error) {
	return s.repos.Friend.List(ctx, userID)
}

// SendMessage delivers a private message
func (s *socialService) SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := validation.ToError(s.validator.ValidateMessage(req)); err != nil {
		return nil, err
	}
	exists, err := s.repos.User.Exists(ctx, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check recipient: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("user_not_found", "recipient not found")
	}

	msg := &models.Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Title:       strings.TrimSpace(req.Title),
		Text:        req.Text,
		CreatedAt:   time.Now(),
	}
	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// RemoveMessage deletes the message from the caller's side. The row is
// purged once both sides removed it.
func (s *socialService) RemoveMessage(ctx context.Context, messageID, userID string) (*models.Message, error) {
	notFound := apperr.NotFound("message_not_found", "message not found")
	if !validation.IsValidUUID(messageID) {
		return nil, notFound
	}
	msg, err := s.repos.Message.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		return nil, notFound
	}

	sides := msg.Sides(userID)
	if len(sides) == 0 {
		return nil, notFound
	}

	updated, err := s.repos.Message.MarkDeleted(ctx, messageID, sides)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, notFound
	}

	if updated.Purged() {
		s.log.Debug().Str("message_id", messageID).Msg("Message purged")
	}
	return updated, nil
}

// Inbox lists messages received by userID, newest first
func (s *socialService) Inbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return s.repos.Message.Inbox(ctx, userID)
}

// Outbox lists messages sent by userID, newest first
func (s *socialService) Outbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return s.repos.Message.Outbox(ctx, userID)
}
