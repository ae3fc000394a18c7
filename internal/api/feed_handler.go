package api

import (
	"net/http"

	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FeedHandler handles the published posts feed
type FeedHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(services *service.Services, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		services: services,
		log:      log.With().Str("handler", "feed").Logger(),
	}
}

// StreamFeed handles GET /v1/feed?format=...
// Streams the newest posts directly to the response
func (h *FeedHandler) StreamFeed(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		format = "ndjson" // Default to NDJSON for streaming
	}
	if format != "ndjson" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json"})
		return
	}

	if err := h.services.Feed.StreamPosts(c.Request.Context(), c.Writer, format); err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("Feed export failed")
		// Can't return error JSON after streaming has started
		return
	}
}
