package api

import (
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment thread endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

type commentView struct {
	*models.Comment
	Margin int `json:"margin"`
}

func toViews(comments []*models.Comment) []commentView {
	views := make([]commentView, len(comments))
	for i, c := range comments {
		views[i] = commentView{Comment: c, Margin: c.Margin()}
	}
	return views
}

// AddComment handles POST /v1/posts/:id/comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.services.Comment.AddComment(c.Request.Context(), c.Param("id"), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, commentView{Comment: comment, Margin: comment.Margin()})
}

// GetThread handles GET /v1/posts/:id/comments
func (h *CommentHandler) GetThread(c *gin.Context) {
	comments, err := h.services.Comment.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": toViews(comments)})
}

// GetSubtree handles GET /v1/comments/:id/replies
func (h *CommentHandler) GetSubtree(c *gin.Context) {
	comments, err := h.services.Comment.GetSubtree(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": toViews(comments)})
}
