package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

// blogRepo is the concrete implementation of BlogRepository
type blogRepo struct {
	db *database.DB
}

// NewBlogRepo creates a new blog repository
func NewBlogRepo(db *database.DB) BlogRepository {
	return &blogRepo{db: db}
}

// Create inserts a blog and makes its owner a member
func (r *blogRepo) Create(ctx context.Context, blog *models.Blog) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO blogs (id, name, owner_id, description, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query,
			blog.ID, blog.Name, blog.OwnerID, blog.Description, blog.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return apperr.Validation("name", "blog name already taken")
			}
			return fmt.Errorf("failed to insert blog: %w", err)
		}

		if _, err := addMember(ctx, tx, blog.ID, blog.OwnerID); err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a blog by ID
func (r *blogRepo) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	query := `
		SELECT id, name, owner_id, description, rate, rate_count, created_at
		FROM blogs WHERE id = $1
	`

	var blog models.Blog
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&blog.ID, &blog.Name, &blog.OwnerID, &blog.Description,
		&blog.Rate, &blog.RateCount, &blog.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// IsMember checks whether a user belongs to a blog
func (r *blogRepo) IsMember(ctx context.Context, blogID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM blog_members WHERE blog_id = $1 AND user_id = $2)",
		blogID, userID,
	).Scan(&exists)
	return exists, err
}

// AddMember joins a user to a blog; false when already a member
func (r *blogRepo) AddMember(ctx context.Context, blogID, userID string) (bool, error) {
	return addMember(ctx, r.db, blogID, userID)
}

func addMember(ctx context.Context, q querier, blogID, userID string) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO blog_members (blog_id, user_id, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (blog_id, user_id) DO NOTHING
	`, blogID, userID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// RemoveMember removes a user from a blog; false when not a member
func (r *blogRepo) RemoveMember(ctx context.Context, blogID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM blog_members WHERE blog_id = $1 AND user_id = $2",
		blogID, userID,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListMembers returns member user IDs in join order
func (r *blogRepo) ListMembers(ctx context.Context, blogID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM blog_members WHERE blog_id = $1 ORDER BY created_at",
		blogID,
	)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

// Count returns the total number of blogs
func (r *blogRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blogs").Scan(&count)
	return count, err
}
