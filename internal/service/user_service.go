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

// userService is the concrete implementation of UserService
type userService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

// newUserService creates a new UserService
func newUserService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *userService {
	return &userService{
		repos:     repos,
		validator: validator,
		log:       log.With().Str("service", "user").Logger(),
	}
}

// CreateUser registers a user together with a default profile
func (s *userService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := validation.ToError(s.validator.ValidateUser(req)); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     strings.ToLower(req.Email),
		CreatedAt: time.Now(),
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("name", user.Name).Msg("User created")
	return user, nil
}

// GetUser returns a user by id
func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validation.IsValidUUID(id) {
		return nil, apperr.NotFound("user_not_found", "user not found")
	}
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user_not_found", "user not found")
	}
	return user, nil
}

// GetProfile returns the profile of a user
func (s *userService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if !validation.IsValidUUID(userID) {
		return nil, apperr.NotFound("profile_not_found", "profile not found")
	}
	profile, err := s.repos.User.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.NotFound("profile_not_found", "profile not found")
	}
	return profile, nil
}

// UpdateProfile applies the set fields of req to the profile
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(profile)
	if err := s.repos.User.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// Notifications lists mention notifications for a user, newest first
func (s *userService) Notifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repos.Notification.ListForUser(ctx, userID)
}
