package api

import (
	"net/http"
	"time"

	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	userHandler := NewUserHandler(services, log)
	blogHandler := NewBlogHandler(services, log)
	postHandler := NewPostHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	rateHandler := NewRateHandler(services, log)
	socialHandler := NewSocialHandler(services, log)
	feedHandler := NewFeedHandler(services, log)
	draftHandler := NewDraftHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	{
		// Public reads
		v1.POST("/users", userHandler.CreateUser)
		v1.GET("/users/:id", userHandler.GetUser)
		v1.GET("/users/:id/profile", userHandler.GetProfile)
		v1.GET("/blogs/:id", blogHandler.GetBlog)
		v1.GET("/blogs/:id/members", blogHandler.ListMembers)
		v1.GET("/posts", postHandler.ListPosts)
		v1.GET("/posts/:id", postHandler.GetPost)
		v1.GET("/posts/:id/content", postHandler.GetContent)
		v1.GET("/posts/:id/answers", postHandler.GetResults)
		v1.GET("/posts/:id/comments", commentHandler.GetThread)
		v1.GET("/comments/:id/replies", commentHandler.GetSubtree)
		v1.GET("/feed", feedHandler.StreamFeed)

		// Acting user required
		acting := v1.Group("", requireUser())
		{
			acting.PATCH("/profile", userHandler.UpdateProfile)
			acting.GET("/notifications", userHandler.ListNotifications)

			acting.POST("/blogs", blogHandler.CreateBlog)
			acting.GET("/blogs/:id/membership", blogHandler.CheckMembership)
			acting.POST("/blogs/:id/members", blogHandler.Join)
			acting.DELETE("/blogs/:id/members", blogHandler.Leave)

			acting.POST("/posts", postHandler.CreatePost)
			acting.POST("/polls", postHandler.CreatePoll)
			acting.PUT("/posts/:id", postHandler.EditPost)
			acting.PUT("/posts/:id/options", postHandler.SetOptions)
			acting.GET("/posts/:id/vote", postHandler.CheckVote)
			acting.POST("/posts/:id/votes", postHandler.Vote)
			acting.POST("/posts/:id/fix", postHandler.FixVote)
			acting.POST("/posts/:id/comments", commentHandler.AddComment)
			acting.POST("/posts/:id/favourite", socialHandler.ToggleFavourite)
			acting.POST("/posts/:id/spy", socialHandler.ToggleSpy)

			acting.POST("/rates/:kind/:id", rateHandler.Rate)
			acting.GET("/rates/:kind/:id", rateHandler.HasRated)

			acting.POST("/drafts", draftHandler.SaveDraft)
			acting.GET("/drafts", draftHandler.ListDrafts)
			acting.GET("/drafts/:id", draftHandler.GetDraft)
			acting.PUT("/drafts/:id", draftHandler.SaveDraft)
			acting.DELETE("/drafts/:id", draftHandler.DeleteDraft)
			acting.POST("/drafts/:id/publish", draftHandler.PublishDraft)

			acting.GET("/friends", socialHandler.ListFriends)
			acting.POST("/friends/:id", socialHandler.AddFriend)
			acting.DELETE("/friends/:id", socialHandler.RemoveFriend)

			acting.POST("/messages", socialHandler.SendMessage)
			acting.GET("/messages/inbox", socialHandler.Inbox)
			acting.GET("/messages/outbox", socialHandler.Outbox)
			acting.DELETE("/messages/:id", socialHandler.RemoveMessage)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "community-blog-api",
	})
}

// metricsHandler returns entity counts
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCount, _ := services.Feed.GetCount(ctx, "users")
		blogsCount, _ := services.Feed.GetCount(ctx, "blogs")
		postsCount, _ := services.Feed.GetCount(ctx, "posts")
		commentsCount, _ := services.Feed.GetCount(ctx, "comments")

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"users":    usersCount,
				"blogs":    blogsCount,
				"posts":    postsCount,
				"comments": commentsCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("user_id", c.GetString(userIDKey)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
