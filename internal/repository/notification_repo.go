package repository

import (
	"context"

	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

// notificationRepo is the concrete implementation of NotificationRepository
type notificationRepo struct {
	db *database.DB
}

// NewNotificationRepo creates a new notification repository
func NewNotificationRepo(db *database.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

// Create inserts a notification
func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, post_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.PostID, n.Kind, n.CreatedAt)
	return err
}

// ListForUser returns the notifications of a user, newest first
func (r *notificationRepo) ListForUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, post_id, kind, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.PostID, &n.Kind, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
