package api

import (
	"net/http"
	"strconv"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PostHandler handles post, poll and vote endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// CreatePost handles POST /v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.services.Post.CreatePost(c.Request.Context(), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// CreatePoll handles POST /v1/polls
func (h *PostHandler) CreatePoll(c *gin.Context) {
	var req models.CreatePollRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.services.Post.CreatePoll(c.Request.Context(), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// EditPost handles PUT /v1/posts/:id
func (h *PostHandler) EditPost(c *gin.Context) {
	var req models.EditPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.services.Post.EditPost(c.Request.Context(), c.Param("id"), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// SetOptions handles PUT /v1/posts/:id/options
func (h *PostHandler) SetOptions(c *gin.Context) {
	var req models.UpdatePostOptionsRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.services.Post.SetOptions(c.Request.Context(), c.Param("id"), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetPost handles GET /v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.services.Post.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetContent handles GET /v1/posts/:id/content?kind=0|1
func (h *PostHandler) GetContent(c *gin.Context) {
	kind, err := strconv.Atoi(c.DefaultQuery("kind", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 0 (preview) or 1 (full)"})
		return
	}

	content, err := h.services.Post.GetContent(c.Request.Context(), c.Param("id"), models.ContentKind(kind))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	switch v := content.(type) {
	case models.ChoiceContent:
		c.JSON(http.StatusOK, gin.H{"type": "choice", "answers": v.Answers})
	case models.TextContent:
		c.JSON(http.StatusOK, gin.H{"type": "text", "text": v.Text})
	}
}

// ListPosts handles GET /v1/posts?filter=...&param=...&limit=...
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.PostFilter{
		Kind:  models.PostFilterKind(c.DefaultQuery("filter", string(models.FilterAll))),
		Param: c.Query("param"),
		Limit: limit,
	}

	posts, err := h.services.Post.ListPosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// CheckVote handles GET /v1/posts/:id/vote
func (h *PostHandler) CheckVote(c *gin.Context) {
	canVote, err := h.services.Poll.Check(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_vote": canVote})
}

// Vote handles POST /v1/posts/:id/votes
func (h *PostHandler) Vote(c *gin.Context) {
	var req models.VoteRequest
	if !bindJSON(c, &req) {
		return
	}

	voted, err := h.services.Poll.VoteMultiple(c.Request.Context(), c.Param("id"), actingUser(c), req.AnswerIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voted": voted})
}

// FixVote handles POST /v1/posts/:id/fix
func (h *PostHandler) FixVote(c *gin.Context) {
	fixed, err := h.services.Poll.Fix(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed": fixed})
}

// GetResults handles GET /v1/posts/:id/answers
func (h *PostHandler) GetResults(c *gin.Context) {
	answers, err := h.services.Poll.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
