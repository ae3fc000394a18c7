package api

import (
	"net/http"

	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateHandler handles rating endpoints
type RateHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(services *service.Services, log zerolog.Logger) *RateHandler {
	return &RateHandler{
		services: services,
		log:      log.With().Str("handler", "rate").Logger(),
	}
}

// Rate handles POST /v1/rates/:kind/:id
func (h *RateHandler) Rate(c *gin.Context) {
	var req models.RateRequest
	if !bindJSON(c, &req) {
		return
	}

	kind := models.RateKind(c.Param("kind"))
	result, err := h.services.Rating.Rate(c.Request.Context(), kind, c.Param("id"), actingUser(c), req.Delta)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HasRated handles GET /v1/rates/:kind/:id
func (h *RateHandler) HasRated(c *gin.Context) {
	kind := models.RateKind(c.Param("kind"))
	rated, err := h.services.Rating.HasRated(c.Request.Context(), kind, c.Param("id"), actingUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rated": rated})
}
