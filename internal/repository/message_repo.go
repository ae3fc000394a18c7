package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

const messageColumns = `id, sender_id, recipient_id, title, text, sender_deleted, recipient_deleted, deleted, created_at`

// messageRepo is the concrete implementation of MessageRepository
type messageRepo struct {
	db *database.DB
}

// NewMessageRepo creates a new message repository
func NewMessageRepo(db *database.DB) MessageRepository {
	return &messageRepo{db: db}
}

// Create inserts a new message
func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, title, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Title, msg.Text, msg.CreatedAt,
	)
	return err
}

// GetByID retrieves a message by ID
func (r *messageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msg, err := scanMessage(r.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkDeleted flags the given sides and recomputes the deleted counter.
// Flagging a side twice does not count twice. The row is removed once both
// sides are flagged; the returned message then reports Purged.
func (r *messageRepo) MarkDeleted(ctx context.Context, id string, sides []models.MessageSide) (*models.Message, error) {
	var sender, recipient bool
	for _, side := range sides {
		switch side {
		case models.SideSender:
			sender = true
		case models.SideRecipient:
			recipient = true
		}
	}

	var msg *models.Message
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE messages SET
				sender_deleted = sender_deleted OR $2,
				recipient_deleted = recipient_deleted OR $3,
				deleted = (CASE WHEN sender_deleted OR $2 THEN 1 ELSE 0 END)
					+ (CASE WHEN recipient_deleted OR $3 THEN 1 ELSE 0 END)
			WHERE id = $1
			RETURNING ` + messageColumns

		var err error
		msg, err = scanMessage(tx.QueryRowContext(ctx, query, id, sender, recipient))
		if err == sql.ErrNoRows {
			msg = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to mark message deleted: %w", err)
		}

		if msg.Purged() {
			if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE id = $1", id); err != nil {
				return fmt.Errorf("failed to purge message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Inbox returns messages received by userID that the recipient has not deleted
func (r *messageRepo) Inbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return r.list(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE recipient_id = $1 AND NOT recipient_deleted ORDER BY created_at DESC",
		userID,
	)
}

// Outbox returns messages sent by userID that the sender has not deleted
func (r *messageRepo) Outbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return r.list(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE sender_id = $1 AND NOT sender_deleted ORDER BY created_at DESC",
		userID,
	)
}

func (r *messageRepo) list(ctx context.Context, query, userID string) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(s rowScanner) (*models.Message, error) {
	var m models.Message
	err := s.Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Title, &m.Text,
		&m.SenderDeleted, &m.RecipientDeleted, &m.Deleted, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
