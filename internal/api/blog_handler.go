package api

import (
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BlogHandler handles blog and membership endpoints
type BlogHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(services *service.Services, log zerolog.Logger) *BlogHandler {
	return &BlogHandler{
		services: services,
		log:      log.With().Str("handler", "blog").Logger(),
	}
}

// CreateBlog handles POST /v1/blogs
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	var req models.CreateBlogRequest
	if !bindJSON(c, &req) {
		return
	}

	blog, err := h.services.Blog.CreateBlog(c.Request.Context(), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, blog)
}

// GetBlog handles GET /v1/blogs/:id
func (h *BlogHandler) GetBlog(c *gin.Context) {
	blog, err := h.services.Blog.GetBlog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, blog)
}

// ListMembers handles GET /v1/blogs/:id/members
func (h *BlogHandler) ListMembers(c *gin.Context) {
	members, err := h.services.Blog.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// CheckMembership handles GET /v1/blogs/:id/membership
func (h *BlogHandler) CheckMembership(c *gin.Context) {
	member, err := h.services.Blog.CheckUser(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

// Join handles POST /v1/blogs/:id/members
func (h *BlogHandler) Join(c *gin.Context) {
	joined, err := h.services.Blog.Join(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joined": joined})
}

// Leave handles DELETE /v1/blogs/:id/members
func (h *BlogHandler) Leave(c *gin.Context) {
	left, err := h.services.Blog.Leave(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": left})
}
