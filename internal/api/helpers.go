package api

import (
	"errors"
	"net/http"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	userHeader = "X-User-ID"
	userIDKey  = "user_id"
)

// requireUser takes the acting user from the X-User-ID header
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(userHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": userHeader + " header is required"})
			return
		}
		if !validation.IsValidUUID(id) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": userHeader + " must be a UUID"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func actingUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
	}

	body := gin.H{"error": e.Message, "code": e.Code}
	if e.Field != "" {
		body["field"] = e.Field
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body, answering 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body: " + err.Error()})
		return false
	}
	return true
}
