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

// blogService is the concrete implementation of BlogService
type blogService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

// newBlogService creates a new BlogService
func newBlogService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *blogService {
	return &blogService{
		repos:     repos,
		validator: validator,
		log:       log.With().Str("service", "blog").Logger(),
	}
}

// CreateBlog creates a blog owned by ownerID; the owner becomes its first member
func (s *blogService) CreateBlog(ctx context.Context, ownerID string, req *models.CreateBlogRequest) (*models.Blog, error) {
	if err := validation.ToError(s.validator.ValidateBlog(req)); err != nil {
		return nil, err
	}

	blog := &models.Blog{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		OwnerID:     ownerID,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repos.Blog.Create(ctx, blog); err != nil {
		return nil, err
	}

	s.log.Info().Str("blog_id", blog.ID).Str("owner_id", ownerID).Msg("Blog created")
	return blog, nil
}

// GetBlog returns a blog by id
func (s *blogService) GetBlog(ctx context.Context, id string) (*models.Blog, error) {
	if !validation.IsValidUUID(id) {
		return nil, apperr.NotFound("blog_not_found", "blog not found")
	}
	blog, err := s.repos.Blog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	if blog == nil {
		return nil, apperr.NotFound("blog_not_found", "blog not found")
	}
	return blog, nil
}

// CheckUser reports whether userID may post into blogID
func (s *blogService) CheckUser(ctx context.Context, blogID, userID string) (bool, error) {
	if !validation.IsValidUUID(blogID) {
		return false, nil
	}
	return s.repos.Blog.IsMember(ctx, blogID, userID)
}

// Join adds userID to the blog; false when already a member
func (s *blogService) Join(ctx context.Context, blogID, userID string) (bool, error) {
	if _, err := s.GetBlog(ctx, blogID); err != nil {
		return false, err
	}
	return s.repos.Blog.AddMember(ctx, blogID, userID)
}

// Leave removes userID from the blog. The owner cannot leave.
func (s *blogService) Leave(ctx context.Context, blogID, userID string) (bool, error) {
	blog, err := s.GetBlog(ctx, blogID)
	if err != nil {
		return false, err
	}
	if blog.OwnerID == userID {
		return false, apperr.Validation("user_id", "the owner cannot leave the blog")
	}
	return s.repos.Blog.RemoveMember(ctx, blogID, userID)
}

// Members lists member user ids of a blog
func (s *blogService) Members(ctx context.Context, blogID string) ([]string, error) {
	if _, err := s.GetBlog(ctx, blogID); err != nil {
		return nil, err
	}
	return s.repos.Blog.ListMembers(ctx, blogID)
}
