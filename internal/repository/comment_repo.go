package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/commenttree"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const commentColumns = `id, post_id, author_id, text, rate, rate_count, depth, path, numchild, descendants, created_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// insertRoot creates the synthetic root comment of a post
func insertRoot(ctx context.Context, q querier, postID string, createdAt time.Time) (*models.Comment, error) {
	root := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		Depth:     1,
		Path:      commenttree.RootPath(),
		CreatedAt: touch(createdAt),
	}

	query := `
		INSERT INTO comments (id, post_id, author_id, text, depth, path, created_at)
		VALUES ($1, $2, NULL, '', $3, $4, $5)
	`
	if _, err := q.ExecContext(ctx, query, root.ID, root.PostID, root.Depth, root.Path, root.CreatedAt); err != nil {
		return nil, err
	}
	return root, nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return r.getOne(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id)
}

// GetRoot retrieves the root comment of a post
func (r *commentRepo) GetRoot(ctx context.Context, postID string) (*models.Comment, error) {
	return r.getOne(ctx, "SELECT "+commentColumns+" FROM comments WHERE post_id = $1 AND depth = 1", postID)
}

func (r *commentRepo) getOne(ctx context.Context, query, arg string) (*models.Comment, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// lockChainQuery locks the parent and all of its ancestors root first. Every
// writer takes these locks in path order, so replies in overlapping branches
// queue behind each other instead of deadlocking.
const lockChainQuery = `
	SELECT id, path, numchild FROM comments
	WHERE post_id = $1 AND path = ANY($2)
	ORDER BY path
	FOR UPDATE
`

// lockChain returns the paths from the root down to and including parentPath
func lockChain(parentPath string) []string {
	return append(commenttree.AncestorPaths(parentPath), parentPath)
}

// AddChild inserts comment as the last child of parentID. The parent and its
// ancestors are locked so concurrent replies get distinct ordinals; the
// parent's numchild and every ancestor's descendants counter are bumped in
// the same transaction.
func (r *commentRepo) AddChild(ctx context.Context, parentID string, comment *models.Comment) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var postID, parentPath string

		err := tx.QueryRowContext(ctx,
			"SELECT post_id, path FROM comments WHERE id = $1",
			parentID,
		).Scan(&postID, &parentPath)
		if err == sql.ErrNoRows {
			return apperr.NotFound("comment_not_found", "parent comment not found")
		}
		if err != nil {
			return fmt.Errorf("failed to get parent comment: %w", err)
		}

		rows, err := tx.QueryContext(ctx, lockChainQuery, postID, pq.Array(lockChain(parentPath)))
		if err != nil {
			return fmt.Errorf("failed to lock comment chain: %w", err)
		}
		var chainIDs []string
		numChild := -1
		for rows.Next() {
			var id, path string
			var n int
			if err := rows.Scan(&id, &path, &n); err != nil {
				rows.Close()
				return fmt.Errorf("failed to lock comment chain: %w", err)
			}
			chainIDs = append(chainIDs, id)
			if id == parentID {
				numChild = n
			}
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to lock comment chain: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to lock comment chain: %w", err)
		}
		if numChild < 0 {
			return apperr.NotFound("comment_not_found", "parent comment not found")
		}

		path, err := commenttree.ChildPath(parentPath, numChild+1)
		if err != nil {
			return apperr.Validation("parent_id", err.Error())
		}
		comment.PostID = postID
		comment.Path = path
		comment.Depth = commenttree.Depth(path)

		query := `
			INSERT INTO comments (id, post_id, author_id, text, depth, path, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query,
			comment.ID, comment.PostID, nullStringPtr(comment.AuthorID), comment.Text,
			comment.Depth, comment.Path, comment.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE comments SET numchild = numchild + 1 WHERE id = $1",
			parentID,
		); err != nil {
			return fmt.Errorf("failed to update parent: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE comments SET descendants = descendants + 1 WHERE id = ANY($1)",
			pq.Array(chainIDs),
		); err != nil {
			return fmt.Errorf("failed to update ancestors: %w", err)
		}
		return nil
	})
}

// GetSubtree returns the descendants of a comment in thread order.
// The comment itself is not included.
func (r *commentRepo) GetSubtree(ctx context.Context, commentID string) ([]*models.Comment, error) {
	query := `
		WITH n AS (SELECT post_id, path FROM comments WHERE id = $1)
		SELECT c.id, c.post_id, c.author_id, c.text, c.rate, c.rate_count, c.depth, c.path,
			c.numchild, c.descendants, c.created_at
		FROM comments c, n
		WHERE c.post_id = n.post_id AND c.path > n.path AND c.path < n.path || '~'
		ORDER BY c.path
	`

	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// Count returns the total number of comments excluding roots
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE depth > 1").Scan(&count)
	return count, err
}

func scanComment(s rowScanner) (*models.Comment, error) {
	var c models.Comment
	var authorID sql.NullString

	err := s.Scan(
		&c.ID, &c.PostID, &authorID, &c.Text, &c.Rate, &c.RateCount,
		&c.Depth, &c.Path, &c.NumChild, &c.Descendants, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AuthorID = stringPtr(authorID)
	return &c, nil
}
