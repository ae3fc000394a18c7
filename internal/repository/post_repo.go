package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
	"github.com/lib/pq"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

const postSelect = `
	SELECT p.id, p.author_id, p.blog_id, p.type, p.title, p.addition, p.preview, p.text,
		p.rate, p.rate_count, p.created_at, p.updated_at,
		p.disable_reply, p.disable_rate, p.pinch,
		ARRAY(
			SELECT t.name FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id ORDER BY t.name
		) AS tags
	FROM posts p
`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// Create inserts a post with its root comment, answers and tags in one transaction
func (r *postRepo) Create(ctx context.Context, post *models.Post, answers []*models.Answer) (*models.Comment, error) {
	var root *models.Comment

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO posts (id, author_id, blog_id, type, title, addition, preview, text,
				disable_reply, disable_rate, pinch, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		_, err := tx.ExecContext(ctx, query,
			post.ID, post.AuthorID, nullStringPtr(post.BlogID), post.Type, post.Title,
			post.Addition, post.Preview, post.Text,
			post.DisableReply, post.DisableRate, post.Pinch, post.CreatedAt, post.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.NotFound("reference_not_found", "author or blog not found")
			}
			return fmt.Errorf("failed to insert post: %w", err)
		}

		root, err = insertRoot(ctx, tx, post.ID, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create root comment: %w", err)
		}

		if err := insertAnswers(ctx, tx, answers); err != nil {
			return fmt.Errorf("failed to insert answers: %w", err)
		}

		if err := replaceTags(ctx, tx, post.ID, post.Tags); err != nil {
			return fmt.Errorf("failed to store tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Update stores edited fields and tags of a post
func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE posts SET blog_id = $1, title = $2, addition = $3, preview = $4, text = $5, updated_at = $6
			WHERE id = $7
		`
		result, err := tx.ExecContext(ctx, query,
			nullStringPtr(post.BlogID), post.Title, post.Addition, post.Preview, post.Text,
			post.UpdatedAt, post.ID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.NotFound("blog_not_found", "blog not found")
			}
			return fmt.Errorf("failed to update post: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return apperr.NotFound("post_not_found", "post not found")
		}

		return replaceTags(ctx, tx, post.ID, post.Tags)
	})
}

// UpdateOptions stores the reply, rating and pin switches of a post
func (r *postRepo) UpdateOptions(ctx context.Context, postID string, opts models.PostOptions) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE posts SET disable_reply = $1, disable_rate = $2, pinch = $3 WHERE id = $4",
		opts.DisableReply, opts.DisableRate, opts.Pinch, postID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post options: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("post_not_found", "post not found")
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, postSelect+" WHERE p.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List returns the newest posts matching the filter. Blog listings put
// pinned posts first.
func (r *postRepo) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	where, args := filterClause(filter)
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	order := " ORDER BY p.created_at DESC"
	if filter.Kind == models.FilterBlog {
		order = " ORDER BY p.pinch DESC, p.created_at DESC"
	}
	query := postSelect + where + order + fmt.Sprintf(" LIMIT %d", limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func filterClause(f models.PostFilter) (string, []interface{}) {
	switch f.Kind {
	case models.FilterPersonal:
		return " WHERE p.blog_id IS NULL", nil
	case models.FilterMain:
		return " WHERE p.blog_id IS NOT NULL", nil
	case models.FilterBlog:
		return " WHERE p.blog_id = $1", []interface{}{f.Param}
	case models.FilterTag:
		return ` WHERE EXISTS (
			SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.name = $1)`, []interface{}{strings.ToLower(f.Param)}
	case models.FilterAuthor:
		return " WHERE p.author_id = $1", []interface{}{f.Param}
	case models.FilterFavourite:
		return ` WHERE EXISTS (
			SELECT 1 FROM favourites f WHERE f.post_id = p.id AND f.user_id = $1)`, []interface{}{f.Param}
	default:
		return "", nil
	}
}

// StreamPublished streams posts newest first; limit <= 0 streams all
func (r *postRepo) StreamPublished(ctx context.Context, limit int, callback func(*models.Post) error) error {
	query := postSelect + " ORDER BY p.created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return err
		}
		if err := callback(post); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the total number of posts
func (r *postRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}

func scanPost(s rowScanner) (*models.Post, error) {
	var post models.Post
	var blogID sql.NullString
	var tags []string

	err := s.Scan(
		&post.ID, &post.AuthorID, &blogID, &post.Type, &post.Title, &post.Addition,
		&post.Preview, &post.Text, &post.Rate, &post.RateCount,
		&post.CreatedAt, &post.UpdatedAt,
		&post.DisableReply, &post.DisableRate, &post.Pinch, pq.Array(&tags),
	)
	if err != nil {
		return nil, err
	}

	post.BlogID = stringPtr(blogID)
	if tags == nil {
		tags = []string{}
	}
	post.Tags = tags
	return &post, nil
}

// replaceTags makes the post's tag set equal to tags
func replaceTags(ctx context.Context, q querier, postID string, tags []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = $1", postID); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	if _, err := q.ExecContext(ctx,
		"INSERT INTO tags (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING",
		pq.Array(tags),
	); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, id FROM tags WHERE name = ANY($2)
	`, postID, pq.Array(tags))
	return err
}
