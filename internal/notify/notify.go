// Package notify dispatches mention notifications either into the database
// or onto a Redis list consumed by an external delivery worker.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dispatcher records that userID was mentioned in post
type Dispatcher interface {
	Notify(ctx context.Context, userID string, post *models.Post) error
}

func newNotification(userID string, post *models.Post) *models.Notification {
	return &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		PostID:    post.ID,
		Kind:      models.NotificationKindMention,
		CreatedAt: time.Now(),
	}
}

// New builds the dispatcher selected by cfg. The returned close function
// releases backend connections.
func New(cfg config.NotifyConfig, repo repository.NotificationRepository, log zerolog.Logger) (Dispatcher, func() error, error) {
	switch cfg.Backend {
	case config.NotifyBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}

		return NewQueueDispatcher(client, cfg.QueueKey, log), client.Close, nil

	default:
		return NewStoreDispatcher(repo, log), func() error { return nil }, nil
	}
}

// StoreDispatcher writes notifications to the notifications table
type StoreDispatcher struct {
	repo repository.NotificationRepository
	log  zerolog.Logger
}

// NewStoreDispatcher creates a database backed dispatcher
func NewStoreDispatcher(repo repository.NotificationRepository, log zerolog.Logger) *StoreDispatcher {
	return &StoreDispatcher{
		repo: repo,
		log:  log.With().Str("component", "notify").Str("backend", "database").Logger(),
	}
}

// Notify stores one mention notification
func (d *StoreDispatcher) Notify(ctx context.Context, userID string, post *models.Post) error {
	n := newNotification(userID, post)
	if err := d.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	d.log.Debug().Str("user_id", userID).Str("post_id", post.ID).Msg("Mention recorded")
	return nil
}
