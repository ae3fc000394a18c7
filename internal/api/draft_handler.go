package api

import (
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DraftHandler handles draft endpoints
type DraftHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(services *service.Services, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		services: services,
		log:      log.With().Str("handler", "draft").Logger(),
	}
}

// SaveDraft handles POST /v1/drafts and PUT /v1/drafts/:id
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	var req models.SaveDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	draftID := c.Param("id")
	draft, err := h.services.Draft.SaveDraft(c.Request.Context(), actingUser(c), draftID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if draftID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, draft)
}

// GetDraft handles GET /v1/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := h.services.Draft.GetDraft(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ListDrafts handles GET /v1/drafts
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	drafts, err := h.services.Draft.ListDrafts(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// DeleteDraft handles DELETE /v1/drafts/:id
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	if err := h.services.Draft.DeleteDraft(c.Request.Context(), c.Param("id"), actingUser(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishDraft handles POST /v1/drafts/:id/publish
func (h *DraftHandler) PublishDraft(c *gin.Context) {
	post, err := h.services.Draft.PublishDraft(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
