package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// feedService is the concrete implementation of FeedService
type feedService struct {
	repos *repository.Repositories
	limit int
	log   zerolog.Logger
}

// newFeedService creates a new FeedService
func newFeedService(repos *repository.Repositories, limit int, log zerolog.Logger) *feedService {
	return &feedService{
		repos: repos,
		limit: limit,
		log:   log.With().Str("service", "feed").Logger(),
	}
}

// StreamPosts streams the newest published posts in the specified format
func (s *feedService) StreamPosts(ctx context.Context, w io.Writer, format string) error {
	s.log.Info().Str("format", format).Msg("Starting feed export")

	switch format {
	case "ndjson":
		return s.streamNDJSON(ctx, w)
	case "json":
		return s.streamJSON(ctx, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func (s *feedService) streamNDJSON(ctx context.Context, w io.Writer) error {
	if hw, ok := w.(http.ResponseWriter); ok {
		hw.Header().Set("Content-Type", "application/x-ndjson")
	}

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Post.StreamPublished(ctx, s.limit, func(post *models.Post) error {
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		count++

		// Flush every 10 records for streaming
		if count%10 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Feed export completed")
	return err
}

func (s *feedService) streamJSON(ctx context.Context, w io.Writer) error {
	if hw, ok := w.(http.ResponseWriter); ok {
		hw.Header().Set("Content-Type", "application/json")
	}

	w.Write([]byte("["))
	first := true

	err := s.repos.Post.StreamPublished(ctx, s.limit, func(post *models.Post) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})

	w.Write([]byte("]"))
	return err
}

// GetCount returns count for a resource
func (s *feedService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "users":
		return s.repos.User.Count(ctx)
	case "blogs":
		return s.repos.Blog.Count(ctx)
	case "posts":
		return s.repos.Post.Count(ctx)
	case "comments":
		return s.repos.Comment.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
