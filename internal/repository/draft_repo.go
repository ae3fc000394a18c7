package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

const draftColumns = `id, author_id, blog_id, type, title, addition, text, raw_tags, format, created_at, updated_at`

// draftRepo is the concrete implementation of DraftRepository
type draftRepo struct {
	db *database.DB
}

// NewDraftRepo creates a new draft repository
func NewDraftRepo(db *database.DB) DraftRepository {
	return &draftRepo{db: db}
}

// Create inserts a new draft
func (r *draftRepo) Create(ctx context.Context, d *models.Draft) error {
	query := `
		INSERT INTO drafts (id, author_id, blog_id, type, title, addition, text, raw_tags, format, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.AuthorID, nullStringPtr(d.BlogID), d.Type, d.Title, d.Addition,
		d.Text, d.Tags, d.Format, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound("reference_not_found", "author or blog not found")
		}
		return fmt.Errorf("failed to insert draft: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a draft
func (r *draftRepo) Update(ctx context.Context, d *models.Draft) error {
	query := `
		UPDATE drafts SET blog_id = $1, type = $2, title = $3, addition = $4, text = $5,
			raw_tags = $6, format = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		nullStringPtr(d.BlogID), d.Type, d.Title, d.Addition, d.Text,
		d.Tags, d.Format, d.UpdatedAt, d.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFound("blog_not_found", "blog not found")
		}
		return fmt.Errorf("failed to update draft: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("draft_not_found", "draft not found")
	}
	return nil
}

// GetByID retrieves a draft by ID
func (r *draftRepo) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	d, err := scanDraft(r.db.QueryRowContext(ctx, "SELECT "+draftColumns+" FROM drafts WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListForAuthor returns the author's drafts, last edited first
func (r *draftRepo) ListForAuthor(ctx context.Context, authorID string) ([]*models.Draft, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+draftColumns+" FROM drafts WHERE author_id = $1 ORDER BY updated_at DESC",
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []*models.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// Delete removes a draft; false when it did not exist
func (r *draftRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func scanDraft(s rowScanner) (*models.Draft, error) {
	var d models.Draft
	var blogID sql.NullString

	err := s.Scan(
		&d.ID, &d.AuthorID, &blogID, &d.Type, &d.Title, &d.Addition,
		&d.Text, &d.Tags, &d.Format, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.BlogID = stringPtr(blogID)
	return &d, nil
}
