package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/community-blog-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QueueDispatcher pushes JSON encoded notifications onto a Redis list.
// Consumers pop from the right end, so delivery order is FIFO.
type QueueDispatcher struct {
	client *redis.Client
	key    string
	log    zerolog.Logger
}

// NewQueueDispatcher creates a dispatcher from an existing Redis client
func NewQueueDispatcher(client *redis.Client, key string, log zerolog.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		client: client,
		key:    key,
		log:    log.With().Str("component", "notify").Str("backend", "redis").Logger(),
	}
}

// Notify enqueues one mention notification
func (d *QueueDispatcher) Notify(ctx context.Context, userID string, post *models.Post) error {
	data, err := json.Marshal(newNotification(userID, post))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := d.client.LPush(ctx, d.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	d.log.Debug().Str("user_id", userID).Str("post_id", post.ID).Msg("Mention enqueued")
	return nil
}
