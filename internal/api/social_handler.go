package api

import (
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SocialHandler handles favourites, spies, friends and messages
type SocialHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(services *service.Services, log zerolog.Logger) *SocialHandler {
	return &SocialHandler{
		services: services,
		log:      log.With().Str("handler", "social").Logger(),
	}
}

// ToggleFavourite handles POST /v1/posts/:id/favourite
func (h *SocialHandler) ToggleFavourite(c *gin.Context) {
	h.toggle(c, models.MarkFavourite)
}

// ToggleSpy handles POST /v1/posts/:id/spy
func (h *SocialHandler) ToggleSpy(c *gin.Context) {
	h.toggle(c, models.MarkSpy)
}

func (h *SocialHandler) toggle(c *gin.Context, kind models.MarkKind) {
	added, err := h.services.Social.ToggleMark(c.Request.Context(), kind, c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "added": added})
}

// ListFriends handles GET /v1/friends
func (h *SocialHandler) ListFriends(c *gin.Context) {
	friends, err := h.services.Social.Friends(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// AddFriend handles POST /v1/friends/:id
func (h *SocialHandler) AddFriend(c *gin.Context) {
	added, err := h.services.Social.AddFriend(c.Request.Context(), actingUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveFriend handles DELETE /v1/friends/:id
func (h *SocialHandler) RemoveFriend(c *gin.Context) {
	removed, err := h.services.Social.RemoveFriend(c.Request.Context(), actingUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// SendMessage handles POST /v1/messages
func (h *SocialHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.services.Social.SendMessage(c.Request.Context(), actingUser(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Inbox handles GET /v1/messages/inbox
func (h *SocialHandler) Inbox(c *gin.Context) {
	messages, err := h.services.Social.Inbox(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Outbox handles GET /v1/messages/outbox
func (h *SocialHandler) Outbox(c *gin.Context) {
	messages, err := h.services.Social.Outbox(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// RemoveMessage handles DELETE /v1/messages/:id
func (h *SocialHandler) RemoveMessage(c *gin.Context) {
	msg, err := h.services.Social.RemoveMessage(c.Request.Context(), c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": msg.ID, "deleted": msg.Deleted, "purged": msg.Purged()})
}
