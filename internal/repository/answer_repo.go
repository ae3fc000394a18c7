package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
	"github.com/lib/pq"
)

// answerRepo is the concrete implementation of AnswerRepository
type answerRepo struct {
	db *database.DB
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *database.DB) AnswerRepository {
	return &answerRepo{db: db}
}

// insertAnswers bulk loads poll answers using PostgreSQL COPY
func insertAnswers(ctx context.Context, tx *sql.Tx, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("answers", "id", "post_id", "position", "value", "count"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range answers {
		if _, err := stmt.ExecContext(ctx, a.ID, a.PostID, a.Position, a.Value, a.Count); err != nil {
			return err
		}
	}

	_, err = stmt.ExecContext(ctx)
	return err
}

// ListForPost returns the answers of a poll in creation order
func (r *answerRepo) ListForPost(ctx context.Context, postID string) ([]*models.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, post_id, position, value, count FROM answers WHERE post_id = $1 ORDER BY position",
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []*models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.PostID, &a.Position, &a.Value, &a.Count); err != nil {
			return nil, err
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

// HasVoted checks whether the (post, user) lock exists
func (r *answerRepo) HasVoted(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM answer_votes WHERE post_id = $1 AND user_id = $2)",
		postID, userID,
	).Scan(&exists)
	return exists, err
}

// ballotLockQuery writes the (post, user) lock; an existing lock inserts
// nothing and leaves the surrounding tx usable
const ballotLockQuery = `
	INSERT INTO answer_votes (post_id, user_id, created_at) VALUES ($1, $2, NOW())
	ON CONFLICT (post_id, user_id) DO NOTHING
`

// Fix writes the (post, user) lock; false when it already exists
func (r *answerRepo) Fix(ctx context.Context, postID, userID string) (bool, error) {
	return fixVote(ctx, r.db, postID, userID)
}

func fixVote(ctx context.Context, q querier, postID, userID string) (bool, error) {
	result, err := q.ExecContext(ctx, ballotLockQuery, postID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperr.NotFound("post_not_found", "post or user not found")
		}
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CastBallot writes the lock and increments every chosen answer atomically.
// Nothing changes when the lock already exists. answerIDs must be distinct.
func (r *answerRepo) CastBallot(ctx context.Context, postID, userID string, answerIDs []string) (bool, error) {
	voted := false

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		fixed, err := fixVote(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if !fixed {
			return nil
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE answers SET count = count + 1 WHERE post_id = $1 AND id = ANY($2)",
			postID, pq.Array(answerIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to count ballot: %w", err)
		}
		if rows, _ := result.RowsAffected(); int(rows) != len(answerIDs) {
			return apperr.Validation("answer_ids", "answer does not belong to this poll")
		}

		voted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return voted, nil
}
