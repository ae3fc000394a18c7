package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

var markTables = map[models.MarkKind]string{
	models.MarkFavourite: "favourites",
	models.MarkSpy:       "spies",
}

// markRepo is the concrete implementation of MarkRepository
type markRepo struct {
	db *database.DB
}

// NewMarkRepo creates a new favourite/spy repository
func NewMarkRepo(db *database.DB) MarkRepository {
	return &markRepo{db: db}
}

// Toggle removes an existing mark or creates a missing one; true when created
func (r *markRepo) Toggle(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error) {
	table, ok := markTables[kind]
	if !ok {
		return false, apperr.Validation("kind", fmt.Sprintf("unknown mark: %s", kind))
	}

	added := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, fmt.Sprintf(
			"DELETE FROM %s WHERE post_id = $1 AND user_id = $2", table,
		), postID, userID)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (post_id, user_id, created_at) VALUES ($1, $2, NOW())
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, table), postID, userID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.NotFound("post_not_found", "post not found")
			}
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// Has checks whether the mark exists
func (r *markRepo) Has(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error) {
	table, ok := markTables[kind]
	if !ok {
		return false, apperr.Validation("kind", fmt.Sprintf("unknown mark: %s", kind))
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE post_id = $1 AND user_id = $2)", table,
	), postID, userID).Scan(&exists)
	return exists, err
}

// ListPostIDs returns the marked post IDs of a user, newest first
func (r *markRepo) ListPostIDs(ctx context.Context, kind models.MarkKind, userID string) ([]string, error) {
	table, ok := markTables[kind]
	if !ok {
		return nil, apperr.Validation("kind", fmt.Sprintf("unknown mark: %s", kind))
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT post_id FROM %s WHERE user_id = $1 ORDER BY created_at DESC", table,
	), userID)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// friendRepo is the concrete implementation of FriendRepository
type friendRepo struct {
	db *database.DB
}

// NewFriendRepo creates a new friend repository
func NewFriendRepo(db *database.DB) FriendRepository {
	return &friendRepo{db: db}
}

// Add creates the edge userID -> friendID; false when already present
func (r *friendRepo) Add(ctx context.Context, userID, friendID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO friends (user_id, friend_id, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`, userID, friendID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperr.NotFound("user_not_found", "user not found")
		}
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Remove deletes the edge; false when it did not exist
func (r *friendRepo) Remove(ctx context.Context, userID, friendID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM friends WHERE user_id = $1 AND friend_id = $2",
		userID, friendID,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// List returns friend IDs in the order they were added
func (r *friendRepo) List(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT friend_id FROM friends WHERE user_id = $1 ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}
